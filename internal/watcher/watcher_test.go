package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dispatchy/internal/watcher"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func start(t *testing.T, cfg watcher.Config) <-chan []string {
	t.Helper()
	w, err := watcher.New(cfg)
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clicks.yaml")
	writeFile(t, path, "name: clicks\n")

	onChange := start(t, watcher.Config{Paths: []string{path}, DebounceDur: 50 * time.Millisecond})

	// Rapid writes coalesce into a single notification.
	for i := range 10 {
		writeFile(t, path, fmt.Sprintf("name: clicks%d\n", i))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case changed := <-onChange:
		require.Equal(t, []string{path}, changed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clicks.yaml")
	other := filepath.Join(dir, "other.yaml")
	writeFile(t, path, "name: clicks\n")
	writeFile(t, other, "name: other\n")

	onChange := start(t, watcher.Config{Paths: []string{path}, DebounceDur: 50 * time.Millisecond})

	writeFile(t, other, "name: other2\n")

	select {
	case <-onChange:
		t.Fatal("should not notify for files that are not watched")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_DirectoryUsesMatch(t *testing.T) {
	dir := t.TempDir()
	onChange := start(t, watcher.Config{
		Paths:       []string{dir},
		DebounceDur: 50 * time.Millisecond,
		Match:       func(p string) bool { return strings.HasSuffix(p, ".yaml") },
	})

	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "b.yaml"), "name: b\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "name: a\n")

	select {
	case changed := <-onChange:
		abs, err := filepath.Abs(dir)
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join(abs, "a.yaml"), filepath.Join(abs, "b.yaml")}, changed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for new scenario files")
	}
}

func TestWatcher_ReportsRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clicks.yaml")
	writeFile(t, path, "name: clicks\n")

	onChange := start(t, watcher.Config{Paths: []string{path}, DebounceDur: 50 * time.Millisecond})

	// Editors save by writing a temp file and renaming it over the original.
	tmp := filepath.Join(dir, ".clicks.yaml.tmp")
	writeFile(t, tmp, "name: replaced\n")
	require.NoError(t, os.Rename(tmp, path))

	select {
	case changed := <-onChange:
		require.Contains(t, changed, path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification after rename")
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	w, err := watcher.New(watcher.Config{Paths: []string{dir}, DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestNew_MissingPath(t *testing.T) {
	_, err := watcher.New(watcher.Config{Paths: []string{filepath.Join(t.TempDir(), "missing.yaml")}})
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("a.yaml", "suite")

	assert.Equal(t, []string{"a.yaml", "suite"}, cfg.Paths)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDur)
	assert.Nil(t, cfg.Match)
}
