package scenario

import "embed"

//go:embed examples/*.yaml
var examplesFS embed.FS

// Builtin returns the bundled example scenarios.
func Builtin() ([]*Scenario, error) {
	return LoadFS(examplesFS, "examples")
}
