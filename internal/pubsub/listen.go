package pubsub

import "context"

// Listen calls fn for every event on ch until ch is closed or ctx is done.
// It returns ctx.Err() when stopped by ctx and nil when ch closed.
func Listen[T any](ctx context.Context, ch <-chan Event[T], fn func(Event[T])) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			fn(event)
		}
	}
}
