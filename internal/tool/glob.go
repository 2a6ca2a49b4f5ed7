package tool

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codepilot/codepilot/internal/search/walk"
)

type globInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

// GlobTool matches files under a root directory against a doublestar glob
// pattern, honoring the shared ignore rules.
type GlobTool struct{}

func (t *GlobTool) Name() string        { return "Glob" }
func (t *GlobTool) Description() string { return "Find files matching a glob pattern" }

func (t *GlobTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "description": "glob pattern, e.g. **/*.go"},
			"path": {"type": "string", "description": "root directory to search from, default cwd"}
		},
		"required": ["pattern"]
	}`)
}

func (t *GlobTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in globInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.Pattern == "" {
		return Err("pattern is required")
	}
	root := cwd
	if in.Path != "" {
		root = resolvePath(in.Path, cwd)
	}

	entries, err := walk.Walk(root)
	if err != nil {
		return Errf("failed to walk directory: %v", err)
	}

	type match struct {
		rel string
		ms  int64
	}
	var matches []match
	for _, e := range entries {
		ok, err := doublestar.Match(in.Pattern, e.RelPath)
		if err != nil {
			return Errf("invalid pattern: %v", err)
		}
		if ok {
			matches = append(matches, match{rel: e.RelPath, ms: e.ModTime.UnixNano()})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ms > matches[j].ms })

	if len(matches) == 0 {
		return Ok("(no matches)")
	}
	var lines []string
	for _, m := range matches {
		lines = append(lines, m.rel)
	}
	return Ok(strings.Join(lines, "\n"))
}

func init() {
	Register(&GlobTool{})
}
