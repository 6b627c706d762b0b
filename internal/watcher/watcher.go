// Package watcher watches scenario files and directories and reports
// debounced batches of changed scenario paths.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/dispatchy/internal/log"
)

// Watcher monitors scenario paths for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	match     func(path string) bool

	// files are watched individually; dirs report any matching file.
	files map[string]struct{}
	dirs  map[string]struct{}

	onChange chan []string
	done     chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Paths are scenario files or directories.
	Paths       []string
	DebounceDur time.Duration

	// Match selects files inside watched directories. Nil matches every
	// file.
	Match func(path string) bool
}

// DefaultConfig returns a 100ms debounce over paths.
func DefaultConfig(paths ...string) Config {
	return Config{
		Paths:       paths,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  cfg.DebounceDur,
		match:     cfg.Match,
		files:     make(map[string]struct{}),
		dirs:      make(map[string]struct{}),
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}
	if w.match == nil {
		w.match = func(string) bool { return true }
	}
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			w.dirs[abs] = struct{}{}
		} else {
			w.files[abs] = struct{}{}
		}
	}
	return w, nil
}

// Start begins watching. The returned channel receives the sorted absolute
// paths changed during each quiet period.
func (w *Watcher) Start() (<-chan []string, error) {
	// Editors replace files by rename, so files are watched through their
	// parent directory.
	watched := make(map[string]struct{})
	for f := range w.files {
		watched[filepath.Dir(f)] = struct{}{}
	}
	for d := range w.dirs {
		watched[d] = struct{}{}
	}
	for dir := range watched {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		log.Debug(log.CatWatcher, "Watching directory", "dir", dir)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]struct{})
	)

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[filepath.Clean(event.Name)] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)

			// Coalesce with a batch the consumer has not taken yet.
			select {
			case w.onChange <- changed:
			case prev := <-w.onChange:
				merged := slices.Compact(slices.Sorted(slices.Values(append(prev, changed...))))
				w.onChange <- merged
			}
			log.Debug(log.CatWatcher, "Scenario change detected", "files", len(changed))

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether event touches a watched scenario.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if _, ok := w.files[name]; ok {
		return true
	}
	if _, ok := w.dirs[filepath.Dir(name)]; ok {
		return w.match(name)
	}
	return false
}
