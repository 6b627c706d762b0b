// Package flags provides read-only feature flags loaded from the flags
// section of the config. Unknown flags are always off.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/dispatchy/internal/dispatch"
	"github.com/zjrosen/dispatchy/internal/log"
)

const (
	// FlagPartialMapping makes mapping registration keep the keys
	// registered before an invalid listener instead of validating the whole
	// mapping first.
	FlagPartialMapping = "partial-mapping"

	// FlagListenerSpans records a child span per listener invocation.
	FlagListenerSpans = "listener-spans"
)

// Known returns every flag name dispatchy reads, sorted.
func Known() []string {
	return []string{FlagListenerSpans, FlagPartialMapping}
}

// IsKnown reports whether name is a flag dispatchy reads.
func IsKnown(name string) bool {
	return slices.Contains(Known(), name)
}

// Registry holds feature flag state loaded from configuration.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map. A nil map disables every flag.
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: maps.Clone(flags)}
	for name := range flags {
		if !IsKnown(name) {
			log.Warn(log.CatConfig, "Unknown flag in config", "flag", name)
		}
	}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled reports whether the named flag is on. Unknown flags and a nil
// registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	return maps.Clone(r.flags)
}

// DispatchOptions translates the enabled flags into dispatcher options.
func (r *Registry) DispatchOptions() []dispatch.Option {
	var opts []dispatch.Option
	if r.Enabled(FlagPartialMapping) {
		opts = append(opts, dispatch.WithPartialMapping())
	}
	if r.Enabled(FlagListenerSpans) {
		opts = append(opts, dispatch.WithListenerSpans())
	}
	return opts
}
