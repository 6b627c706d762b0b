// Package scenario runs scripted sequences of registry operations from YAML
// files and checks the recorded listener and hook calls against
// expectations.
//
// A scenario looks like:
//
//	name: namespaces
//	lifecycle: [click]
//	steps:
//	  - {op: on, type: click.ui, listener: a}
//	  - {op: fire, type: click, payload: 1}
//	  - op: expect
//	    records: ["setup:a", "add:a", "a click 1"]
//
// Listener invocations are recorded as "<listener> <type>[.<namespace>]"
// followed by the payload when there is one. Hook calls of types listed
// under lifecycle are recorded as "<hook>:<listener>". Registration errors
// are recorded as "error: <message>".
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	stdpath "path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dispatchy/internal/log"
)

// Op names a step operation.
type Op string

const (
	OpOn      Op = "on"
	OpOne     Op = "one"
	OpOff     Op = "off"
	OpFire    Op = "fire"
	OpEnable  Op = "enable"
	OpDisable Op = "disable"
	OpCreate  Op = "create" // swap in a fresh registry from Create, without lifecycles
	OpExpect  Op = "expect"
)

var ops = []Op{OpOn, OpOne, OpOff, OpFire, OpEnable, OpDisable, OpCreate, OpExpect}

// Scenario is one YAML document.
type Scenario struct {
	Name string `yaml:"name"`

	// Persistent types are registered with RegisterPersistentEvent before
	// the first step.
	Persistent []string `yaml:"persistent,omitempty"`

	// Lifecycle types get hooks recording every setup, add, remove and
	// teardown.
	Lifecycle []string `yaml:"lifecycle,omitempty"`

	Steps []Step `yaml:"steps"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Step is a single operation.
type Step struct {
	Op   Op     `yaml:"op"`
	Type string `yaml:"type,omitempty"`

	// Listener names the listener. The same name always refers to the same
	// listener, so off can remove it. An empty name on on/one registers a
	// non-callable listener.
	Listener string `yaml:"listener,omitempty"`

	// Listeners is the mapping form of on/one: event string to listener name.
	Listeners map[string]string `yaml:"listeners,omitempty"`

	Payload any `yaml:"payload,omitempty"`

	// Records is the expected output of an expect step since the previous
	// expect.
	Records []string `yaml:"records,omitempty"`
}

// ErrInvalidScenario is wrapped by every validation error.
var ErrInvalidScenario = errors.New("invalid scenario")

// Validate checks step operations and arguments.
func (s *Scenario) Validate() error {
	for _, t := range s.Persistent {
		if t == "" || strings.ContainsAny(t, ". \t") {
			return fmt.Errorf("%w: persistent type %q must be a bare type", ErrInvalidScenario, t)
		}
		if slices.Contains(s.Lifecycle, t) {
			return fmt.Errorf("%w: %q cannot be both persistent and lifecycle", ErrInvalidScenario, t)
		}
	}
	for i, step := range s.Steps {
		if !slices.Contains(ops, step.Op) {
			return fmt.Errorf("%w: step %d: unknown op %q", ErrInvalidScenario, i+1, step.Op)
		}
		switch step.Op {
		case OpOn, OpOne:
			if step.Type == "" && len(step.Listeners) == 0 {
				return fmt.Errorf("%w: step %d: %s needs type or listeners", ErrInvalidScenario, i+1, step.Op)
			}
			if step.Type != "" && len(step.Listeners) > 0 {
				return fmt.Errorf("%w: step %d: %s takes type or listeners, not both", ErrInvalidScenario, i+1, step.Op)
			}
		case OpExpect:
			if step.Type != "" || step.Listener != "" {
				return fmt.Errorf("%w: step %d: expect only takes records", ErrInvalidScenario, i+1)
			}
		}
	}
	return nil
}

// DisplayName returns the name, falling back to the file name.
func (s *Scenario) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path != "" {
		return strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	}
	return "unnamed"
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: scenario paths come from the command line
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	sc.Path = path
	log.Debug(log.CatScenario, "Scenario loaded", "path", path, "steps", len(sc.Steps))
	return sc, nil
}

// LoadFS loads every *.yaml and *.yml file under root in fsys, in lexical
// order.
func LoadFS(fsys fs.FS, root string) ([]*Scenario, error) {
	var scenarios []*Scenario
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsScenarioFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sc, err := Parse(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		sc.Path = path
		scenarios = append(scenarios, sc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	return scenarios, nil
}

// LoadPaths loads each path; directories are scanned with LoadFS.
func LoadPaths(paths []string) ([]*Scenario, error) {
	var scenarios []*Scenario
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			sc, err := Load(p)
			if err != nil {
				return nil, err
			}
			scenarios = append(scenarios, sc)
			continue
		}

		found, err := LoadFS(os.DirFS(p), ".")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		for _, sc := range found {
			sc.Path = filepath.Join(p, filepath.FromSlash(sc.Path))
		}
		scenarios = append(scenarios, found...)
	}
	return scenarios, nil
}

// IsScenarioFile reports whether path has a YAML extension.
func IsScenarioFile(path string) bool {
	switch stdpath.Ext(filepath.ToSlash(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
