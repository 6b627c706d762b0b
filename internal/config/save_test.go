package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readFlags(t *testing.T, path string) map[string]bool {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Flags map[string]bool `yaml:"flags"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc.Flags
}

func TestSaveFlag_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveFlag(path, "partial-mapping", true))

	require.Equal(t, map[string]bool{"partial-mapping": true}, readFlags(t, path))
}

func TestSaveFlag_UpdatesExistingAndKeepsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveFlag(path, "listener-spans", true))

	require.Equal(t, map[string]bool{"partial-mapping": false, "listener-spans": true}, readFlags(t, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Cache of parsed event-type strings")
	require.Contains(t, string(data), "# record a span per listener invocation")
}

func TestSaveFlag_EmptyFlagsSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\nflags:\n"), 0o600))

	require.NoError(t, SaveFlag(path, "listener-spans", false))

	require.Equal(t, map[string]bool{"listener-spans": false}, readFlags(t, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "level: info")
}

func TestSaveFlag_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))

	require.Error(t, SaveFlag(path, "listener-spans", true))
}
