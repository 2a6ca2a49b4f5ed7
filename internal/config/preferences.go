package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preferences is the project's .codepilot.yaml: defaults that don't belong
// in the JSON permission-settings files since they aren't security policy.
type Preferences struct {
	Model  string       `yaml:"model,omitempty"`
	Search SearchTuning `yaml:"search,omitempty"`
}

// SearchTuning adjusts the hybrid search engine's default result shape
// without touching call sites — a project with short files might want more
// context lines, for instance.
type SearchTuning struct {
	DefaultLimit        int `yaml:"default_limit,omitempty"`
	DefaultContextLines int `yaml:"default_context_lines,omitempty"`
}

// LoadPreferences reads <projectDir>/.codepilot.yaml. A missing or
// malformed file yields the zero value rather than an error — preferences
// are optional tuning, never load-bearing.
func LoadPreferences(projectDir string) Preferences {
	data, err := os.ReadFile(filepath.Join(projectDir, ".codepilot.yaml"))
	if err != nil {
		return Preferences{}
	}
	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}
	}
	return p
}
