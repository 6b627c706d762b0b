package dispatch

import "github.com/zjrosen/dispatchy/internal/log"

// RegisterPersistentEvent makes eventType replay its first firing.
//
// Listeners added before the first fire are invoked at fire time, in order,
// and from then on always receive the first fire's meta and payload.
// Listeners added after it are invoked immediately with that meta and
// payload and are not stored. eventType must be a bare type without
// namespaces.
func (d *Dispatcher) RegisterPersistentEvent(eventType string) {
	var (
		fired   bool
		meta    Meta
		payload any
	)

	d.RegisterEvent(eventType, Lifecycle{
		Add: func(e *Entry) {
			if fired {
				e.Invoke(meta, payload)
				e.Discard()
				return
			}
			e.Wrap(func(next HandlerFunc) HandlerFunc {
				return func(m Meta, p any) {
					if !fired {
						fired, meta, payload = true, m, p
						log.Debug(log.CatLifecycle, "Persistent event captured", "type", m.Type)
					}
					next(meta, payload)
				}
			})
		},
	})

	// The sentinel runs first on the first fire, so the payload is captured
	// even when no real listener is registered yet.
	_ = d.One(eventType, NewNamedListener("persistent-sentinel", func(Meta, any) {}))
}
