package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, path, json string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(json), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMergesProjectAndLocalLayers(t *testing.T) {
	project := t.TempDir()
	writeSettings(t, filepath.Join(project, ".claude", "settings.json"), `{"permissions":{"allow":["Bash(psql:*)"],"deny":["Bash(rm:*)"]}}`)
	writeSettings(t, filepath.Join(project, ".claude", "settings.local.json"), `{"permissions":{"allow":["Bash(find:*)"],"additionalDirectories":["/extra"]}}`)

	cfg := NewLoader(project).Load()

	if len(cfg.Allow) != 2 || cfg.Allow[0] != "Bash(psql:*)" || cfg.Allow[1] != "Bash(find:*)" {
		t.Errorf("expected concatenated allow list in layer order, got %v", cfg.Allow)
	}
	if len(cfg.Deny) != 1 || cfg.Deny[0] != "Bash(rm:*)" {
		t.Errorf("unexpected deny list: %v", cfg.Deny)
	}
	if len(cfg.AdditionalDirectories) != 1 || cfg.AdditionalDirectories[0] != "/extra" {
		t.Errorf("unexpected additional directories: %v", cfg.AdditionalDirectories)
	}
}

func TestLoadSkipsMissingAndMalformedFiles(t *testing.T) {
	project := t.TempDir()
	writeSettings(t, filepath.Join(project, ".claude", "settings.json"), `not json at all`)

	cfg := NewLoader(project).Load()

	if len(cfg.Allow) != 0 || len(cfg.Deny) != 0 || len(cfg.AdditionalDirectories) != 0 {
		t.Errorf("expected empty config when all layers are missing/malformed, got %+v", cfg)
	}
}

func TestLoadKeepsDuplicates(t *testing.T) {
	project := t.TempDir()
	writeSettings(t, filepath.Join(project, ".claude", "settings.json"), `{"permissions":{"allow":["Bash(ls:*)"]}}`)
	writeSettings(t, filepath.Join(project, ".claude", "settings.local.json"), `{"permissions":{"allow":["Bash(ls:*)"]}}`)

	cfg := NewLoader(project).Load()

	if len(cfg.Allow) != 2 {
		t.Errorf("expected duplicate allow rules to be kept, got %v", cfg.Allow)
	}
}
