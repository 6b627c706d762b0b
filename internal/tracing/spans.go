package tracing

// Span names.
const (
	SpanFire     = "dispatch.fire"
	SpanListener = "dispatch.listener"
	SpanScenario = "scenario.run"
	SpanStep     = "scenario.step"
)

// Attribute keys.
const (
	AttrEventType        = "event.type"
	AttrEventNamespace   = "event.namespace"
	AttrListenersInvoked = "listeners.invoked"

	AttrListenerName = "listener.name"
	AttrListenerOnce = "listener.once"

	AttrScenarioName = "scenario.name"
	AttrScenarioFile = "scenario.file"
	AttrRunID        = "scenario.run_id"
	AttrStepIndex    = "scenario.step.index"
	AttrStepOp       = "scenario.step.op"
)

// Span event names.
const (
	EventExpectationFailed = "expectation.failed"
)
