package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/codepilot/codepilot/internal/permission"
)

// Loader resolves the three settings layers for a given project directory:
// ~/.claude/settings.json, <project>/.claude/settings.json, and
// <project>/.claude/settings.local.json.
type Loader struct {
	ProjectDir string
}

func NewLoader(projectDir string) *Loader {
	return &Loader{ProjectDir: projectDir}
}

// layerPaths returns the three files in merge order: global, project, local.
func (l *Loader) layerPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".claude", "settings.json"),
		filepath.Join(l.ProjectDir, ".claude", "settings.json"),
		filepath.Join(l.ProjectDir, ".claude", "settings.local.json"),
	}
}

// Load merges the three layers by list concatenation, preserving order and
// keeping duplicates. Missing or malformed files are silently skipped —
// per spec §7, a ConfigError falls back to defaults rather than aborting.
func (l *Loader) Load() permission.Config {
	var cfg permission.Config
	for _, path := range l.layerPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var s Settings
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		cfg.Allow = append(cfg.Allow, s.Permissions.Allow...)
		cfg.Deny = append(cfg.Deny, s.Permissions.Deny...)
		cfg.AdditionalDirectories = append(cfg.AdditionalDirectories, s.Permissions.AdditionalDirectories...)
	}
	return cfg
}

// Load is a convenience function using the default global+project+local
// layering for projectDir.
func Load(projectDir string) permission.Config {
	return NewLoader(projectDir).Load()
}
