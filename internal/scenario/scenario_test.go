package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(`
name: demo
persistent: [ready]
lifecycle: [click]
steps:
  - {op: on, type: click.ui, listener: a}
  - op: on
    listeners: {save: b}
  - {op: fire, type: click, payload: {x: 1}}
  - op: expect
    records: ["a click map[x:1]"]
`))
	require.NoError(t, err)
	require.Equal(t, "demo", sc.Name)
	require.Equal(t, []string{"ready"}, sc.Persistent)
	require.Equal(t, []string{"click"}, sc.Lifecycle)
	require.Len(t, sc.Steps, 4)
	require.Equal(t, Step{Op: OpOn, Type: "click.ui", Listener: "a"}, sc.Steps[0])
	require.Equal(t, map[string]string{"save": "b"}, sc.Steps[1].Listeners)
	require.Equal(t, map[string]any{"x": 1}, sc.Steps[2].Payload)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown field", doc: "steps:\n  - {op: fire, typ: click}\n"},
		{name: "unknown op", doc: "steps:\n  - {op: emit, type: click}\n"},
		{name: "on without type", doc: "steps:\n  - {op: on, listener: a}\n"},
		{name: "on with type and listeners", doc: "steps:\n  - {op: on, type: a, listeners: {b: c}}\n"},
		{name: "expect with type", doc: "steps:\n  - {op: expect, type: click}\n"},
		{name: "namespaced persistent", doc: "persistent: [ready.ns]\n"},
		{name: "persistent and lifecycle", doc: "persistent: [ready]\nlifecycle: [ready]\n"},
		{name: "not yaml", doc: "steps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidScenario), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clicks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - {op: fire, type: click}\n"), 0o600))

	sc, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, sc.Path)
	require.Equal(t, "clicks", sc.DisplayName())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFS_SkipsNonYAMLInOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"s/b.yaml":        {Data: []byte("name: b\n")},
		"s/a.yml":         {Data: []byte("name: a\n")},
		"s/notes.md":      {Data: []byte("# not a scenario")},
		"s/nested/c.yaml": {Data: []byte("name: c\n")},
	}

	scenarios, err := LoadFS(fsys, "s")
	require.NoError(t, err)

	var names []string
	for _, sc := range scenarios {
		names = append(names, sc.Name)
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
	require.Equal(t, "s/a.yml", scenarios[0].Path)
}

func TestLoadFS_ReportsFile(t *testing.T) {
	fsys := fstest.MapFS{"s/bad.yaml": {Data: []byte("steps:\n  - {op: nope}\n")}}

	_, err := LoadFS(fsys, "s")
	require.Error(t, err)
	require.Contains(t, err.Error(), "s/bad.yaml")
}

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "suite"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), []byte("name: one\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "suite", "two.yaml"), []byte("name: two\n"), 0o600))

	scenarios, err := LoadPaths([]string{filepath.Join(dir, "one.yaml"), filepath.Join(dir, "suite")})
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	require.Equal(t, filepath.Join(dir, "suite", "two.yaml"), scenarios[1].Path)

	_, err = LoadPaths([]string{filepath.Join(dir, "missing")})
	require.Error(t, err)
}

func TestIsScenarioFile(t *testing.T) {
	require.True(t, IsScenarioFile("a/b.yaml"))
	require.True(t, IsScenarioFile("b.yml"))
	require.False(t, IsScenarioFile("b.yaml.swp"))
	require.False(t, IsScenarioFile("README"))
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "named", (&Scenario{Name: "named", Path: "x.yaml"}).DisplayName())
	require.Equal(t, "x", (&Scenario{Path: "dir/x.yaml"}).DisplayName())
	require.Equal(t, "unnamed", (&Scenario{}).DisplayName())
}
