package scenario

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/dispatchy/internal/dispatch"
	"github.com/zjrosen/dispatchy/internal/log"
	"github.com/zjrosen/dispatchy/internal/tracing"
)

// Result is the outcome of one run.
type Result struct {
	RunID        string
	Scenario     string
	Path         string
	Steps        int
	Expectations int
	Failures     []Failure
	Duration     time.Duration

	// Unchecked holds records produced after the last expect step.
	Unchecked []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Failure is an expect step whose records did not match.
type Failure struct {
	// Step is the 1-based index of the expect step.
	Step int
	Want []string
	Got  []string
	Diff string
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	dispatchOpts []dispatch.Option
	tracer       trace.Tracer
	newRunID     func() string
}

// WithDispatchOptions passes opts to every dispatcher the run creates.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(c *runConfig) {
		c.dispatchOpts = append(c.dispatchOpts, opts...)
	}
}

// WithTracer records a span per run and per step.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *runConfig) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithRunID overrides run ID generation.
func WithRunID(fn func() string) Option {
	return func(c *runConfig) {
		if fn != nil {
			c.newRunID = fn
		}
	}
}

// Run executes sc against a new dispatcher. Failed expectations are
// reported in the Result; the returned error is for invalid scenarios and
// cancelled contexts.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	cfg := runConfig{
		tracer:   noop.NewTracerProvider().Tracer(tracing.DefaultServiceName),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	res := &Result{
		RunID:    cfg.newRunID(),
		Scenario: sc.DisplayName(),
		Path:     sc.Path,
		Steps:    len(sc.Steps),
	}
	ctx = tracing.ContextWithRunID(ctx, res.RunID)
	ctx, span := cfg.tracer.Start(ctx, tracing.SpanScenario, trace.WithAttributes(
		attribute.String(tracing.AttrScenarioName, res.Scenario),
		attribute.String(tracing.AttrScenarioFile, res.Path),
		attribute.String(tracing.AttrRunID, res.RunID),
	))
	defer span.End()

	start := time.Now()
	r := newRunner(sc, cfg.dispatchOpts)
	log.Debug(log.CatScenario, "Run started", "scenario", res.Scenario, "run_id", res.RunID)

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("run %s: %w", res.Scenario, err)
		}

		stepCtx, stepSpan := cfg.tracer.Start(ctx, tracing.SpanStep, trace.WithAttributes(
			attribute.Int(tracing.AttrStepIndex, i+1),
			attribute.String(tracing.AttrStepOp, string(step.Op)),
			attribute.String(tracing.AttrEventType, step.Type),
		))
		if step.Op == OpExpect {
			res.Expectations++
			if f, ok := r.expect(i+1, step.Records); !ok {
				res.Failures = append(res.Failures, f)
				stepSpan.AddEvent(tracing.EventExpectationFailed, trace.WithAttributes(
					attribute.Int(tracing.AttrStepIndex, f.Step),
				))
				stepSpan.SetStatus(codes.Error, "expectation failed")
				log.Debug(log.CatScenario, "Expectation failed", "scenario", res.Scenario, "step", f.Step)
			}
		} else {
			r.apply(stepCtx, step)
		}
		stepSpan.End()
	}

	res.Unchecked = r.take()
	res.Duration = time.Since(start)
	if !res.Passed() {
		span.SetStatus(codes.Error, fmt.Sprintf("%d expectation(s) failed", len(res.Failures)))
	}
	log.Info(log.CatScenario, "Run finished",
		"scenario", res.Scenario, "run_id", res.RunID, "passed", res.Passed(), "duration", res.Duration)
	return res, nil
}

type runner struct {
	sc        *Scenario
	opts      []dispatch.Option
	d         *dispatch.Dispatcher
	listeners map[string]*dispatch.Listener
	records   []string
}

func newRunner(sc *Scenario, opts []dispatch.Option) *runner {
	r := &runner{
		sc:        sc,
		opts:      opts,
		listeners: make(map[string]*dispatch.Listener),
	}
	r.d = dispatch.New(opts...)
	r.register(r.d)
	return r
}

// register installs the scenario's persistent and recording lifecycles.
func (r *runner) register(d *dispatch.Dispatcher) {
	for _, t := range r.sc.Persistent {
		d.RegisterPersistentEvent(t)
	}
	for _, t := range r.sc.Lifecycle {
		d.RegisterEvent(t, dispatch.Lifecycle{
			Setup:    r.hook("setup"),
			Add:      r.hook("add"),
			Remove:   r.hook("remove"),
			Teardown: r.hook("teardown"),
		})
	}
}

func (r *runner) hook(name string) dispatch.Hook {
	return func(e *dispatch.Entry) {
		r.records = append(r.records, name+":"+e.Listener().Name())
	}
}

// listener returns the listener registered under name, creating it on first
// use. An empty name yields nil.
func (r *runner) listener(name string) *dispatch.Listener {
	if name == "" {
		return nil
	}
	if l, ok := r.listeners[name]; ok {
		return l
	}
	l := dispatch.NewNamedListener(name, func(m dispatch.Meta, payload any) {
		r.records = append(r.records, formatCall(name, m, payload))
	})
	r.listeners[name] = l
	return l
}

func (r *runner) apply(ctx context.Context, step Step) {
	switch step.Op {
	case OpOn, OpOne:
		once := step.Op == OpOne
		var err error
		if len(step.Listeners) > 0 {
			m := make(map[string]*dispatch.Listener, len(step.Listeners))
			for types, name := range step.Listeners {
				m[types] = r.listener(name)
			}
			if once {
				err = r.d.OneMap(m)
			} else {
				err = r.d.OnMap(m)
			}
		} else if once {
			err = r.d.One(step.Type, r.listener(step.Listener))
		} else {
			err = r.d.On(step.Type, r.listener(step.Listener))
		}
		if err != nil {
			r.records = append(r.records, "error: "+err.Error())
		}
	case OpOff:
		r.d.Off(step.Type, r.listener(step.Listener))
	case OpFire:
		r.d.FireContext(ctx, step.Type, step.Payload)
	case OpEnable:
		r.d.SetDisabled(false)
	case OpDisable:
		r.d.SetDisabled(true)
	case OpCreate:
		r.d = r.d.Create()
	}
}

func (r *runner) expect(step int, want []string) (Failure, bool) {
	got := r.take()
	if slices.Equal(want, got) {
		return Failure{}, true
	}
	return Failure{
		Step: step,
		Want: want,
		Got:  got,
		Diff: Diff(want, got),
	}, false
}

func (r *runner) take() []string {
	got := r.records
	r.records = nil
	return got
}

func formatCall(name string, m dispatch.Meta, payload any) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(m.Type)
	if m.Namespace != "" {
		b.WriteString(dispatch.Separator)
		b.WriteString(m.Namespace)
	}
	if payload != nil {
		fmt.Fprintf(&b, " %v", payload)
	}
	return b.String()
}
