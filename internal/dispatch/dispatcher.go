package dispatch

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/zjrosen/dispatchy/internal/log"
)

// Dispatcher is a registry of listeners keyed by event type.
type Dispatcher struct {
	opts options

	// listeners holds the stored sequence per type. A nil sequence under a
	// present key marks a type cleared by a bulk Off.
	listeners  map[string][]*Entry
	order      []string
	lifecycles map[string]Lifecycle
	disabled   atomic.Bool
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newDispatcher(o)
}

func newDispatcher(o options) *Dispatcher {
	return &Dispatcher{
		opts:       o,
		listeners:  make(map[string][]*Entry),
		lifecycles: make(map[string]Lifecycle),
	}
}

// Create returns a new, empty Dispatcher configured with the same options.
// No registry state is shared with d.
func (d *Dispatcher) Create() *Dispatcher {
	return newDispatcher(d.opts)
}

// SetDisabled turns dispatching off or back on. While disabled, Fire does
// nothing.
func (d *Dispatcher) SetDisabled(disabled bool) {
	d.disabled.Store(disabled)
}

// Disabled reports whether dispatching is turned off.
func (d *Dispatcher) Disabled() bool {
	return d.disabled.Load()
}

// RegisterEvent attaches lc to eventType, replacing any previous lifecycle.
// The lifecycle outlives the entries of the type.
func (d *Dispatcher) RegisterEvent(eventType string, lc Lifecycle) {
	d.lifecycles[eventType] = lc
	log.Debug(log.CatLifecycle, "Lifecycle registered", "type", eventType)
}

// On registers l for every type in types.
func (d *Dispatcher) On(types string, l *Listener) error {
	return d.on(types, l, false)
}

// One registers l for every type in types; each entry is removed after its
// first invocation.
func (d *Dispatcher) One(types string, l *Listener) error {
	return d.on(types, l, true)
}

// OnMap registers every listener of m under its key. Keys are processed in
// sorted order.
func (d *Dispatcher) OnMap(m map[string]*Listener) error {
	return d.onMap(m, false)
}

// OneMap is OnMap with fire-once entries.
func (d *Dispatcher) OneMap(m map[string]*Listener) error {
	return d.onMap(m, true)
}

func (d *Dispatcher) onMap(m map[string]*Listener, once bool) error {
	keys := slices.Sorted(maps.Keys(m))
	if !d.opts.partialMapping {
		for _, key := range keys {
			if !m[key].Callable() {
				return &InvalidListenerError{Types: key}
			}
		}
	}
	for _, key := range keys {
		if err := d.on(key, m[key], once); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) on(types string, l *Listener, once bool) error {
	if !l.Callable() {
		return &InvalidListenerError{Types: types}
	}
	for spec := range d.specs(context.Background(), types) {
		if spec.IsEmpty() {
			continue
		}
		d.add(newEntry(spec, l, once))
	}
	return nil
}

func (d *Dispatcher) add(e *Entry) {
	lc, custom := d.lifecycles[e.Type]
	first := len(d.listeners[e.Type]) == 0
	if custom {
		if first {
			lc.setup(e)
		}
		lc.add(e)
	}

	if e.discard {
		// Keep Setup and Teardown paired when nothing ended up stored.
		if custom && first && len(d.listeners[e.Type]) == 0 {
			lc.teardown(e)
		}
		log.Debug(log.CatLifecycle, "Entry discarded by hook", "type", e.Type, "listener", e.listener.Name())
		return
	}

	// Hooks may have re-entered, so read the sequence again.
	d.store(e.Type, append(slices.Clip(d.listeners[e.Type]), e))
	d.opts.observer.Registered(e)
	log.Debug(log.CatDispatch, "Listener registered",
		"type", e.Type, "namespaces", e.Namespaces, "once", e.Once, "listener", e.listener.Name())
}

func (d *Dispatcher) store(eventType string, seq []*Entry) {
	if _, known := d.listeners[eventType]; !known {
		d.order = append(d.order, eventType)
	}
	d.listeners[eventType] = seq
}

// Off removes entries matching types and l.
//
// For each parsed spec: with neither l nor namespaces every entry of the
// type is removed and the type is marked cleared; otherwise entries are
// removed when they belong to l (if given) and carry every namespace of the
// spec (if any). An empty type applies the rule to every known type.
// Nothing matching is not an error.
func (d *Dispatcher) Off(types string, l *Listener) {
	for spec := range d.specs(context.Background(), types) {
		if spec.Type != "" {
			d.offType(spec.Type, spec.Namespaces, l)
			continue
		}
		for _, eventType := range d.knownTypes() {
			d.offType(eventType, spec.Namespaces, l)
		}
	}
}

func (d *Dispatcher) offType(eventType string, namespaces []string, l *Listener) {
	current := d.listeners[eventType]
	if current == nil {
		return
	}

	if l == nil && len(namespaces) == 0 {
		d.listeners[eventType] = nil
		log.Debug(log.CatDispatch, "Type cleared", "type", eventType, "removed", len(current))
		d.notifyRemoved(eventType, current, current, len(current) > 0)
		return
	}

	kept := make([]*Entry, 0, len(current))
	var removed []*Entry
	for _, e := range current {
		if (l == nil || e.listener == l) && e.HasNamespaces(namespaces) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return
	}

	d.listeners[eventType] = kept
	log.Debug(log.CatDispatch, "Listeners removed",
		"type", eventType, "namespaces", namespaces, "removed", len(removed), "remaining", len(kept))
	d.notifyRemoved(eventType, current, removed, len(kept) == 0)
}

// notifyRemoved runs Remove hooks for removed and Teardown when the type
// drained. before is the sequence as it was prior to the removal.
func (d *Dispatcher) notifyRemoved(eventType string, before, removed []*Entry, drained bool) {
	lc, custom := d.lifecycles[eventType]
	for _, e := range removed {
		if custom {
			lc.remove(e)
		}
		d.opts.observer.Removed(e)
	}
	if custom && drained {
		lc.teardown(before[len(before)-1])
	}
}

// Count returns the number of entries stored for eventType.
func (d *Dispatcher) Count(eventType string) int {
	return len(d.listeners[eventType])
}

// Entries returns a copy of the entries stored for eventType in firing order.
func (d *Dispatcher) Entries(eventType string) []*Entry {
	return slices.Clone(d.listeners[eventType])
}

// Types returns every type that has been registered, in first-registration
// order. Drained and cleared types are included.
func (d *Dispatcher) Types() []string {
	return d.knownTypes()
}

// Cleared reports whether eventType was emptied by an unfiltered Off, as
// opposed to never registered or drained by filtered removals.
func (d *Dispatcher) Cleared(eventType string) bool {
	seq, known := d.listeners[eventType]
	return known && seq == nil
}

func (d *Dispatcher) knownTypes() []string {
	return slices.Clone(d.order)
}

func (d *Dispatcher) specs(ctx context.Context, types string) iter.Seq[Spec] {
	if d.opts.cache == nil {
		return Parse(types)
	}
	if cached, ok := d.opts.cache.Get(ctx, types); ok {
		return slices.Values(cached)
	}
	all := ParseAll(types)
	d.opts.cache.Set(ctx, types, all, d.opts.cacheTTL)
	return slices.Values(all)
}
