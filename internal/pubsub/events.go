// Package pubsub provides a generic in-process publish/subscribe broker.
// Watch mode uses it to hand scenario results from the runner goroutine to
// the reporter.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// StartedEvent is published when a batch of scenario runs begins.
	StartedEvent EventType = "started"
	// ResultEvent carries the result of one scenario run.
	ResultEvent EventType = "result"
	// ErrorEvent carries a scenario that could not be loaded or run.
	ErrorEvent EventType = "error"
	// FinishedEvent is published when a batch completes.
	FinishedEvent EventType = "finished"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
	PublishWait(ctx context.Context, eventType EventType, payload T) error
}
