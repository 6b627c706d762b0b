package dispatch

// recorder collects listener invocations in call order.
type recorder struct {
	calls []string
	metas []Meta
}

func (r *recorder) listener(name string) *Listener {
	return NewNamedListener(name, func(m Meta, _ any) {
		r.calls = append(r.calls, name)
		r.metas = append(r.metas, m)
	})
}

func (r *recorder) reset() {
	r.calls = nil
	r.metas = nil
}

// hookCounter counts lifecycle hook invocations.
type hookCounter struct {
	setup, add, remove, teardown int
	teardownEntries              []*Entry
}

func (h *hookCounter) lifecycle() Lifecycle {
	return Lifecycle{
		Setup:  func(*Entry) { h.setup++ },
		Add:    func(*Entry) { h.add++ },
		Remove: func(*Entry) { h.remove++ },
		Teardown: func(e *Entry) {
			h.teardown++
			h.teardownEntries = append(h.teardownEntries, e)
		},
	}
}
