package dispatch

import "slices"

// Entry is a single registration of a listener on one event type.
type Entry struct {
	// Type is the event type the entry is stored under.
	Type string

	// Namespaces are the namespaces the entry was registered with.
	Namespaces []string

	// Once marks the entry for removal after its first invocation.
	Once bool

	listener *Listener
	handler  HandlerFunc
	discard  bool
	spent    bool
}

func newEntry(spec Spec, l *Listener, once bool) *Entry {
	return &Entry{
		Type:       spec.Type,
		Namespaces: slices.Clone(spec.Namespaces),
		Once:       once,
		listener:   l,
		handler:    l.fn,
	}
}

// Listener returns the listener the entry was registered with.
func (e *Entry) Listener() *Listener {
	return e.listener
}

// HasNamespaces reports whether the entry carries every given namespace.
// An empty list matches every entry.
func (e *Entry) HasNamespaces(namespaces []string) bool {
	for _, ns := range namespaces {
		if !slices.Contains(e.Namespaces, ns) {
			return false
		}
	}
	return true
}

// Invoke runs the entry's callable, including any wrappers added by hooks.
func (e *Entry) Invoke(meta Meta, payload any) {
	if e.handler != nil {
		e.handler(meta, payload)
	}
}

// Wrap decorates the callable run by Invoke. The entry keeps its listener
// identity, so Off still matches the original *Listener.
func (e *Entry) Wrap(wrap func(next HandlerFunc) HandlerFunc) {
	e.handler = wrap(e.handler)
}

// Discard keeps the entry out of the store. Only meaningful from Setup and
// Add hooks.
func (e *Entry) Discard() {
	e.discard = true
}
