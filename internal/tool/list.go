package tool

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
)

type listInput struct {
	Path string `json:"path"`
}

// ListTool lists the entries of a directory, skipping dotfiles.
type ListTool struct{}

func (t *ListTool) Name() string        { return "List" }
func (t *ListTool) Description() string { return "List directory entries" }

func (t *ListTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"path": {"type": "string", "description": "directory to list, default cwd"}}
	}`)
}

func (t *ListTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in listInput
	_ = json.Unmarshal(rawInput, &in)
	dir := cwd
	if in.Path != "" {
		dir = resolvePath(in.Path, cwd)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Errf("failed to list directory: %v", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := e.Name()
		if e.Type()&os.ModeSymlink != 0 {
			name += "@"
		} else if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return Ok("(empty directory)")
	}
	return Ok(strings.Join(names, "\n"))
}

func init() {
	Register(&ListTool{})
}
