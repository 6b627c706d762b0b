package testutil

import "github.com/zjrosen/dispatchy/internal/scenario"

// StepOption configures a step during builder setup.
type StepOption func(*scenario.Step)

// Payload sets the payload of a fire step.
func Payload(v any) StepOption {
	return func(s *scenario.Step) { s.Payload = v }
}
