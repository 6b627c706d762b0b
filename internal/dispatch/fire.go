package dispatch

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dispatchy/internal/log"
	"github.com/zjrosen/dispatchy/internal/tracing"
)

// Fire invokes the listeners matching types with payload.
//
// Listeners run synchronously in registration order. A spec with namespaces
// only invokes entries carrying all of them; a spec without a type is fired
// on every known type. Fire does nothing while the Dispatcher is disabled.
func (d *Dispatcher) Fire(types string, payload any) {
	d.FireContext(context.Background(), types, payload)
}

// FireContext is Fire with a parent context for tracing.
func (d *Dispatcher) FireContext(ctx context.Context, types string, payload any) {
	if d.disabled.Load() {
		return
	}
	for spec := range d.specs(ctx, types) {
		if spec.IsEmpty() {
			continue
		}
		if spec.Type != "" {
			d.trigger(ctx, spec.Type, spec, payload)
			continue
		}
		for _, eventType := range d.knownTypes() {
			d.trigger(ctx, eventType, spec, payload)
		}
	}
}

func (d *Dispatcher) trigger(ctx context.Context, eventType string, spec Spec, payload any) {
	// The stored sequence is never modified in place, so it doubles as the
	// snapshot for this pass.
	snapshot := d.listeners[eventType]
	if len(snapshot) == 0 {
		return
	}

	meta := Meta{Type: eventType, Namespace: spec.Namespace()}
	ctx, span := d.opts.tracer.Start(ctx, tracing.SpanFire, trace.WithAttributes(
		attribute.String(tracing.AttrEventType, meta.Type),
		attribute.String(tracing.AttrEventNamespace, meta.Namespace),
	))
	defer span.End()

	invoked := 0
	for _, e := range snapshot {
		if !e.HasNamespaces(spec.Namespaces) {
			continue
		}
		if e.Once {
			if e.spent {
				continue
			}
			e.spent = true
		}
		d.invoke(ctx, e, meta, payload)
		invoked++
		if e.Once {
			d.drop(e)
		}
	}

	span.SetAttributes(attribute.Int(tracing.AttrListenersInvoked, invoked))
	d.opts.observer.Fired(meta, invoked)
	log.Debug(log.CatDispatch, "Event fired", "type", meta.Type, "namespace", meta.Namespace, "invoked", invoked)
}

func (d *Dispatcher) invoke(ctx context.Context, e *Entry, meta Meta, payload any) {
	if d.opts.listenerSpans {
		_, span := d.opts.tracer.Start(ctx, tracing.SpanListener, trace.WithAttributes(
			attribute.String(tracing.AttrListenerName, e.listener.Name()),
			attribute.Bool(tracing.AttrListenerOnce, e.Once),
		))
		defer span.End()
	}
	e.Invoke(meta, payload)
}

// drop removes a spent fire-once entry from the current sequence of its
// type, which may differ from the snapshot being fired.
func (d *Dispatcher) drop(e *Entry) {
	current := d.listeners[e.Type]
	idx := slices.Index(current, e)
	if idx < 0 {
		return
	}
	kept := slices.Delete(slices.Clone(current), idx, idx+1)
	d.listeners[e.Type] = kept
	d.notifyRemoved(e.Type, current, []*Entry{e}, len(kept) == 0)
}
