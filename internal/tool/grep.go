package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codepilot/codepilot/internal/search/walk"
)

type grepInput struct {
	Pattern    string `json:"pattern"`
	Path       string `json:"path"`
	Glob       string `json:"glob"`
	OutputMode string `json:"output_mode"`
	IgnoreCase bool   `json:"-i"`
	HeadLimit  int    `json:"head_limit"`
}

// GrepTool searches file contents against a regular expression.
type GrepTool struct{}

func (t *GrepTool) Name() string        { return "Grep" }
func (t *GrepTool) Description() string { return "Search file contents with a regular expression" }

func (t *GrepTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"path": {"type": "string"},
			"glob": {"type": "string", "description": "restrict search to files matching this glob"},
			"output_mode": {"type": "string", "enum": ["content", "files_with_matches", "count"]},
			"-i": {"type": "boolean", "description": "case insensitive search"},
			"head_limit": {"type": "integer"}
		},
		"required": ["pattern"]
	}`)
}

func (t *GrepTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in grepInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.Pattern == "" {
		return Err("pattern is required")
	}
	root := cwd
	if in.Path != "" {
		root = resolvePath(in.Path, cwd)
	}
	mode := in.OutputMode
	if mode == "" {
		mode = "files_with_matches"
	}

	pattern := in.Pattern
	if in.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Errf("invalid pattern: %v", err)
	}

	entries, err := walk.Walk(root)
	if err != nil {
		return Errf("failed to walk directory: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ModTime.After(entries[j].ModTime) })

	var filesWithMatches []string
	var contentLines []string
	counts := map[string]int{}

	for _, e := range entries {
		if ctx.Err() != nil {
			return Err("cancelled")
		}
		if in.Glob != "" {
			ok, _ := doublestar.Match(in.Glob, e.RelPath)
			if !ok {
				continue
			}
		}
		matched, lines := grepFile(e.AbsPath, re)
		if !matched {
			continue
		}
		filesWithMatches = append(filesWithMatches, e.RelPath)
		counts[e.RelPath] = len(lines)
		for _, l := range lines {
			contentLines = append(contentLines, fmt.Sprintf("%s:%s", e.RelPath, l))
		}
	}

	var out []string
	switch mode {
	case "content":
		out = contentLines
	case "count":
		for _, f := range filesWithMatches {
			out = append(out, fmt.Sprintf("%s:%d", f, counts[f]))
		}
	default:
		out = filesWithMatches
	}

	if in.HeadLimit > 0 && len(out) > in.HeadLimit {
		out = out[:in.HeadLimit]
	}
	if len(out) == 0 {
		return Ok("(no matches)")
	}
	return Ok(strings.Join(out, "\n"))
}

func grepFile(path string, re *regexp.Regexp) (bool, []string) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if re.MatchString(text) {
			lines = append(lines, fmt.Sprintf("%d:%s", lineNo, text))
		}
	}
	return len(lines) > 0, lines
}

func init() {
	Register(&GrepTool{})
}
