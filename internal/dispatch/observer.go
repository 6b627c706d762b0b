package dispatch

// Observer is notified of registry mutations and fires. Implementations run
// inline and must not block.
type Observer interface {
	// Registered is called after an entry is stored.
	Registered(e *Entry)

	// Removed is called after an entry is taken out of the store, by Off or
	// after a fire-once invocation.
	Removed(e *Entry)

	// Fired is called once per fired type with the number of listeners
	// invoked.
	Fired(meta Meta, invoked int)
}

type nopObserver struct{}

func (nopObserver) Registered(*Entry) {}
func (nopObserver) Removed(*Entry)    {}
func (nopObserver) Fired(Meta, int)   {}
