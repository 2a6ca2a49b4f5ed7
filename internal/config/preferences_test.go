package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPreferencesParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := "model: claude-haiku\nsearch:\n  default_limit: 5\n  default_context_lines: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codepilot.yaml"), []byte(content), 0o644))

	prefs := LoadPreferences(dir)
	require.Equal(t, "claude-haiku", prefs.Model)
	require.Equal(t, 5, prefs.Search.DefaultLimit)
	require.Equal(t, 2, prefs.Search.DefaultContextLines)
}

func TestLoadPreferencesMissingFileYieldsZeroValue(t *testing.T) {
	prefs := LoadPreferences(t.TempDir())
	require.Equal(t, Preferences{}, prefs)
}

func TestLoadPreferencesMalformedYAMLYieldsZeroValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codepilot.yaml"), []byte("not: [valid: yaml"), 0o644))

	prefs := LoadPreferences(dir)
	require.Equal(t, Preferences{}, prefs)
}
