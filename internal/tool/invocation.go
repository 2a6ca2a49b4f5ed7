package tool

import (
	"encoding/json"
	"path/filepath"

	"github.com/codepilot/codepilot/internal/permission"
)

// ToInvocation maps a (name, input) tool-use pair to the ToolInvocation tag
// the permission engine reasons about. It returns ok=false when the name or
// its required field cannot be classified — the agent loop treats that as
// "permission denied" per spec §4.1 Phase 1.
func ToInvocation(name string, input json.RawMessage, cwd string) (permission.Invocation, bool) {
	var params map[string]any
	_ = json.Unmarshal(input, &params)

	path := func(key string) (string, bool) {
		v, ok := params[key].(string)
		if !ok || v == "" {
			return "", false
		}
		if !filepath.IsAbs(v) {
			v = filepath.Join(cwd, v)
		}
		return v, true
	}

	switch name {
	case "Bash":
		cmd, ok := params["command"].(string)
		if !ok || cmd == "" {
			return permission.Invocation{}, false
		}
		return permission.NewBash(cmd), true
	case "Read":
		p, ok := path("file_path")
		if !ok {
			return permission.Invocation{}, false
		}
		return permission.NewRead(p), true
	case "Write":
		p, ok := path("file_path")
		if !ok {
			return permission.Invocation{}, false
		}
		return permission.NewWrite(p), true
	case "Edit":
		p, ok := path("file_path")
		if !ok {
			return permission.Invocation{}, false
		}
		return permission.NewEdit(p), true
	case "List", "Glob":
		return permission.NewGlob(), true
	case "Grep":
		return permission.NewGrep(), true
	case "Git":
		return permission.NewGit(), true
	case "Search":
		return permission.NewSearch(), true
	default:
		return permission.Invocation{}, false
	}
}
