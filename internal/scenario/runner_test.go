package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/dispatchy/internal/dispatch"
	"github.com/zjrosen/dispatchy/internal/tracing"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(doc))
	require.NoError(t, err)
	return sc
}

func TestBuiltinScenariosPass(t *testing.T) {
	scenarios, err := Builtin()
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		t.Run(sc.DisplayName(), func(t *testing.T) {
			res, err := Run(context.Background(), sc)
			require.NoError(t, err)
			for _, f := range res.Failures {
				t.Errorf("step %d:\n%s", f.Step, f.Diff)
			}
			require.True(t, res.Passed())
			require.Empty(t, res.Unchecked)
			require.NotZero(t, res.Expectations)
		})
	}
}

func TestRun_ReportsFailureWithDiff(t *testing.T) {
	sc := mustParse(t, `
name: wrong
steps:
  - {op: on, type: click, listener: a}
  - {op: on, type: click, listener: b}
  - {op: fire, type: click}
  - op: expect
    records: ["a click", "c click"]
  - {op: fire, type: click}
`)

	res, err := Run(context.Background(), sc, WithRunID(func() string { return "run-1" }))
	require.NoError(t, err)
	require.False(t, res.Passed())
	require.Equal(t, "run-1", res.RunID)
	require.Equal(t, 1, res.Expectations)
	require.Len(t, res.Failures, 1)

	f := res.Failures[0]
	require.Equal(t, 4, f.Step)
	require.Equal(t, []string{"a click", "b click"}, f.Got)
	require.Equal(t, []string{"a click", "c click"}, f.Want)
	require.Contains(t, f.Diff, " a click\n")
	require.Contains(t, f.Diff, "-c click\n")
	require.Contains(t, f.Diff, "+b click\n")
	require.Equal(t, []string{"a click", "b click"}, res.Unchecked)
}

func TestRun_RecordsRegistrationErrors(t *testing.T) {
	sc := mustParse(t, `
steps:
  - {op: on, type: click}
  - op: expect
    records: ['error: register "click": listener is not callable']
`)
	res, err := Run(context.Background(), sc)
	require.NoError(t, err)
	require.True(t, res.Passed())
}

func TestRun_PartialMappingOption(t *testing.T) {
	sc := mustParse(t, `
steps:
  - op: one
    listeners: {a: x, b: ""}
  - {op: fire, type: "a a"}
  - op: expect
    records: ['error: register "b": listener is not callable', "x a"]
`)
	res, err := Run(context.Background(), sc, WithDispatchOptions(dispatch.WithPartialMapping()))
	require.NoError(t, err)
	require.True(t, res.Passed(), "%v", res.Failures)
}

func TestRun_RejectsInvalidScenario(t *testing.T) {
	_, err := Run(context.Background(), &Scenario{Steps: []Step{{Op: "bogus"}}})
	require.ErrorIs(t, err, ErrInvalidScenario)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, mustParse(t, "steps:\n  - {op: fire, type: click}\n"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_GeneratesRunIDs(t *testing.T) {
	sc := mustParse(t, "name: ids\n")
	a, err := Run(context.Background(), sc)
	require.NoError(t, err)
	b, err := Run(context.Background(), sc)
	require.NoError(t, err)

	require.Len(t, a.RunID, 36)
	require.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := tp.Tracer("test")

	sc := mustParse(t, `
name: traced
steps:
  - {op: on, type: click, listener: a}
  - {op: fire, type: click}
  - op: expect
    records: ["nope"]
`)
	res, err := Run(context.Background(), sc,
		WithTracer(tracer),
		WithDispatchOptions(dispatch.WithTracer(tracer)),
	)
	require.NoError(t, err)
	require.False(t, res.Passed())

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, s := range sr.Ended() {
		byName[s.Name()] = append(byName[s.Name()], s)
	}
	require.Len(t, byName[tracing.SpanScenario], 1)
	require.Len(t, byName[tracing.SpanStep], 3)
	require.Len(t, byName[tracing.SpanFire], 1)

	run := byName[tracing.SpanScenario][0]
	fire := byName[tracing.SpanFire][0]
	require.Equal(t, run.SpanContext().TraceID(), fire.SpanContext().TraceID(), "fires nest under the run")

	var failedEvents int
	for _, s := range byName[tracing.SpanStep] {
		for _, e := range s.Events() {
			if e.Name == tracing.EventExpectationFailed {
				failedEvents++
			}
		}
	}
	require.Equal(t, 1, failedEvents)
}

func TestFormatCall(t *testing.T) {
	require.Equal(t, "a click", formatCall("a", dispatch.Meta{Type: "click"}, nil))
	require.Equal(t, "a click.ui.menu 7", formatCall("a", dispatch.Meta{Type: "click", Namespace: "ui.menu"}, 7))
}
