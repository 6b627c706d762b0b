package dispatch

import (
	"iter"
	"slices"
	"strings"
)

// Separator splits an event token into its type and namespaces.
const Separator = "."

// Spec is one parsed event token: a type and its namespaces.
type Spec struct {
	Type       string
	Namespaces []string
}

// IsEmpty reports whether the spec has neither a type nor namespaces.
// Empty specs are ignored by On, Off and Fire.
func (s Spec) IsEmpty() bool {
	return s.Type == "" && len(s.Namespaces) == 0
}

// Namespace returns the namespaces joined with Separator.
func (s Spec) Namespace() string {
	return strings.Join(s.Namespaces, Separator)
}

// String returns the spec in "type.ns1.ns2" form.
func (s Spec) String() string {
	if len(s.Namespaces) == 0 {
		return s.Type
	}
	return s.Type + Separator + s.Namespace()
}

// Parse splits an event string into specs.
//
// Tokens are separated by runs of whitespace. Within a token the first
// dot-separated segment is the type (possibly empty, as in ".ns") and the
// remaining non-empty segments are namespaces in order. A blank string
// yields a single empty Spec.
func Parse(types string) iter.Seq[Spec] {
	return func(yield func(Spec) bool) {
		tokens := strings.Fields(types)
		if len(tokens) == 0 {
			yield(Spec{})
			return
		}
		for _, token := range tokens {
			if !yield(parseToken(token)) {
				return
			}
		}
	}
}

// ParseAll collects Parse into a slice.
func ParseAll(types string) []Spec {
	return slices.Collect(Parse(types))
}

func parseToken(token string) Spec {
	name, rest, found := strings.Cut(token, Separator)
	spec := Spec{Type: name}
	if !found {
		return spec
	}
	for _, ns := range strings.Split(rest, Separator) {
		if ns != "" {
			spec.Namespaces = append(spec.Namespaces, ns)
		}
	}
	return spec
}
