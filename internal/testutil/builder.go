// Package testutil builds scenario fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dispatchy/internal/scenario"
)

// Builder accumulates scenario steps.
type Builder struct {
	t  *testing.T
	sc scenario.Scenario
}

// NewBuilder creates a builder for a scenario called name.
func NewBuilder(t *testing.T, name string) *Builder {
	t.Helper()
	return &Builder{t: t, sc: scenario.Scenario{Name: name}}
}

// WithPersistent registers types as persistent events before the first
// step.
func (b *Builder) WithPersistent(types ...string) *Builder {
	b.sc.Persistent = append(b.sc.Persistent, types...)
	return b
}

// WithLifecycle records lifecycle hooks for types.
func (b *Builder) WithLifecycle(types ...string) *Builder {
	b.sc.Lifecycle = append(b.sc.Lifecycle, types...)
	return b
}

// On adds an on step.
func (b *Builder) On(types, listener string) *Builder {
	return b.step(scenario.Step{Op: scenario.OpOn, Type: types, Listener: listener})
}

// One adds a one step.
func (b *Builder) One(types, listener string) *Builder {
	return b.step(scenario.Step{Op: scenario.OpOne, Type: types, Listener: listener})
}

// OnMap adds an on step in mapping form.
func (b *Builder) OnMap(listeners map[string]string) *Builder {
	return b.step(scenario.Step{Op: scenario.OpOn, Listeners: listeners})
}

// Off adds an off step. An empty listener removes by type and namespace
// only.
func (b *Builder) Off(types, listener string) *Builder {
	return b.step(scenario.Step{Op: scenario.OpOff, Type: types, Listener: listener})
}

// Fire adds a fire step with optional configuration.
func (b *Builder) Fire(types string, opts ...StepOption) *Builder {
	step := scenario.Step{Op: scenario.OpFire, Type: types}
	for _, opt := range opts {
		opt(&step)
	}
	return b.step(step)
}

// Disable adds a disable step.
func (b *Builder) Disable() *Builder {
	return b.step(scenario.Step{Op: scenario.OpDisable})
}

// Enable adds an enable step.
func (b *Builder) Enable() *Builder {
	return b.step(scenario.Step{Op: scenario.OpEnable})
}

// Create adds a create step.
func (b *Builder) Create() *Builder {
	return b.step(scenario.Step{Op: scenario.OpCreate})
}

// Expect adds an expect step. No records expects nothing since the
// previous expect.
func (b *Builder) Expect(records ...string) *Builder {
	return b.step(scenario.Step{Op: scenario.OpExpect, Records: records})
}

func (b *Builder) step(s scenario.Step) *Builder {
	b.sc.Steps = append(b.sc.Steps, s)
	return b
}

// Build validates and returns the scenario.
func (b *Builder) Build() *scenario.Scenario {
	b.t.Helper()
	sc := b.sc
	sc.Steps = append([]scenario.Step(nil), b.sc.Steps...)
	require.NoError(b.t, sc.Validate())
	return &sc
}

// WriteFile writes the scenario as YAML to dir/<name>.yaml and returns the
// path.
func (b *Builder) WriteFile(dir string) string {
	b.t.Helper()
	sc := b.Build()
	data, err := yaml.Marshal(sc)
	require.NoError(b.t, err)

	path := filepath.Join(dir, sc.Name+".yaml")
	require.NoError(b.t, os.WriteFile(path, data, 0o600))
	return path
}
