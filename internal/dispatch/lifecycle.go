package dispatch

// Hook is a lifecycle callback receiving the affected entry.
type Hook func(e *Entry)

// Lifecycle is the set of hooks attached to an event type with
// RegisterEvent. Every hook is optional.
type Lifecycle struct {
	// Setup runs before Add when the first entry is added for the type.
	Setup Hook

	// Add runs for every entry added for the type.
	Add Hook

	// Remove runs for every entry removed from the type.
	Remove Hook

	// Teardown runs when the last entry is removed. It receives the last
	// entry of the sequence as it was before the removal.
	Teardown Hook
}

func (lc Lifecycle) setup(e *Entry) {
	if lc.Setup != nil {
		lc.Setup(e)
	}
}

func (lc Lifecycle) add(e *Entry) {
	if lc.Add != nil {
		lc.Add(e)
	}
}

func (lc Lifecycle) remove(e *Entry) {
	if lc.Remove != nil {
		lc.Remove(e)
	}
}

func (lc Lifecycle) teardown(e *Entry) {
	if lc.Teardown != nil {
		lc.Teardown(e)
	}
}
