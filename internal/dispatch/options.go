package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultParseCacheTTL is how long parsed event strings stay cached when a
// ParseCache is configured without a TTL.
const DefaultParseCacheTTL = 10 * time.Minute

// ParseCache stores parsed event strings. Cached slices are shared and must
// be treated as read-only.
type ParseCache interface {
	Get(ctx context.Context, key string) ([]Spec, bool)
	Set(ctx context.Context, key string, value []Spec, ttl time.Duration)
}

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	tracer         trace.Tracer
	listenerSpans  bool
	observer       Observer
	cache          ParseCache
	cacheTTL       time.Duration
	partialMapping bool
}

func defaultOptions() options {
	return options{
		tracer:   noop.NewTracerProvider().Tracer("dispatchy"),
		observer: nopObserver{},
		cacheTTL: DefaultParseCacheTTL,
	}
}

// WithTracer records a span for every fired type.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithListenerSpans records a child span for every listener invocation.
func WithListenerSpans() Option {
	return func(o *options) {
		o.listenerSpans = true
	}
}

// WithObserver sets the observer notified of registrations, removals and fires.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithParseCache caches parsed event strings. A non-positive ttl uses
// DefaultParseCacheTTL.
func WithParseCache(cache ParseCache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = cache
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithPartialMapping makes OnMap and OneMap register keys one by one,
// stopping at the first invalid listener and keeping what was already
// registered. By default every listener in the mapping is validated before
// any key is registered.
func WithPartialMapping() Option {
	return func(o *options) {
		o.partialMapping = true
	}
}
