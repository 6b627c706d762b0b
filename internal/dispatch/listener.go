package dispatch

// Meta describes the event a listener is invoked for.
type Meta struct {
	// Type is the event type the entry is registered on.
	Type string

	// Namespace is the namespace the event was fired with, empty when the
	// bare type was fired. Several namespaces are joined with Separator.
	Namespace string
}

// HandlerFunc is the callable run for a matching event.
// The payload is the value given to Fire and is shared by every listener of
// that call, so mutations through pointer or map payloads are visible to the
// listeners that follow and to the caller.
type HandlerFunc func(meta Meta, payload any)

// Listener is a callback with a stable identity. Off compares listeners by
// pointer, so keep the *Listener to remove it later.
type Listener struct {
	name string
	fn   HandlerFunc
}

// NewListener wraps fn in a Listener.
func NewListener(fn HandlerFunc) *Listener {
	return &Listener{fn: fn}
}

// NewNamedListener wraps fn in a Listener carrying a name for logs and traces.
func NewNamedListener(name string, fn HandlerFunc) *Listener {
	return &Listener{name: name, fn: fn}
}

// Name returns the listener name, or "anonymous".
func (l *Listener) Name() string {
	if l == nil || l.name == "" {
		return "anonymous"
	}
	return l.name
}

// Callable reports whether the listener can be invoked.
func (l *Listener) Callable() bool {
	return l != nil && l.fn != nil
}
