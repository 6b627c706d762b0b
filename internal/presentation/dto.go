// Package presentation formats parse output and scenario results for the
// CLI, as JSON or as styled text.
package presentation

import (
	"github.com/zjrosen/dispatchy/internal/dispatch"
	"github.com/zjrosen/dispatchy/internal/metrics"
	"github.com/zjrosen/dispatchy/internal/scenario"
)

// SpecDTO is one parsed event specification.
type SpecDTO struct {
	Type       string   `json:"type"`
	Namespaces []string `json:"namespaces"` // always present, possibly empty
	Empty      bool     `json:"empty,omitempty"`
}

// FromSpecs converts parsed specs to DTOs.
func FromSpecs(specs []dispatch.Spec) []SpecDTO {
	dtos := make([]SpecDTO, len(specs))
	for i, s := range specs {
		ns := s.Namespaces
		if ns == nil {
			ns = []string{}
		}
		dtos[i] = SpecDTO{Type: s.Type, Namespaces: ns, Empty: s.IsEmpty()}
	}
	return dtos
}

// ResultDTO is one scenario run.
type ResultDTO struct {
	RunID        string       `json:"run_id"`
	Scenario     string       `json:"scenario"`
	Path         string       `json:"path,omitempty"`
	Passed       bool         `json:"passed"`
	Steps        int          `json:"steps"`
	Expectations int          `json:"expectations"`
	DurationMs   float64      `json:"duration_ms"`
	Failures     []FailureDTO `json:"failures,omitempty"`
	Unchecked    []string     `json:"unchecked,omitempty"`
}

// FailureDTO is a failed expect step.
type FailureDTO struct {
	Step int      `json:"step"`
	Want []string `json:"want"`
	Got  []string `json:"got"`
	Diff string   `json:"diff"`
}

// FromResult converts a run result to a DTO.
func FromResult(r *scenario.Result) ResultDTO {
	dto := ResultDTO{
		RunID:        r.RunID,
		Scenario:     r.Scenario,
		Path:         r.Path,
		Passed:       r.Passed(),
		Steps:        r.Steps,
		Expectations: r.Expectations,
		DurationMs:   float64(r.Duration.Microseconds()) / 1000.0,
		Unchecked:    r.Unchecked,
	}
	for _, f := range r.Failures {
		dto.Failures = append(dto.Failures, FailureDTO{Step: f.Step, Want: f.Want, Got: f.Got, Diff: f.Diff})
	}
	return dto
}

// SampleDTO is one metric sample.
type SampleDTO struct {
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// FromSamples converts metric samples to DTOs.
func FromSamples(samples []metrics.Sample) []SampleDTO {
	dtos := make([]SampleDTO, len(samples))
	for i, s := range samples {
		dtos[i] = SampleDTO{Name: s.Name, Type: s.Type, Value: s.Value}
	}
	return dtos
}
