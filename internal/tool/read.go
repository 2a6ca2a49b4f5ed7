package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultReadLimit = 2000

type readInput struct {
	FilePath string `json:"file_path"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

// ReadTool reads file contents and renders them as numbered lines.
type ReadTool struct{}

func (t *ReadTool) Name() string        { return "Read" }
func (t *ReadTool) Description() string { return "Read a file's contents, with optional offset/limit" }

func (t *ReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string"},
			"offset": {"type": "integer", "description": "1-based line number to start from"},
			"limit": {"type": "integer", "description": "maximum number of lines to return, default 2000"}
		},
		"required": ["file_path"]
	}`)
}

func (t *ReadTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in readInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.FilePath == "" {
		return Err("file_path is required")
	}
	path := resolvePath(in.FilePath, cwd)
	limit := in.Limit
	if limit <= 0 {
		limit = defaultReadLimit
	}

	f, err := os.Open(path)
	if err != nil {
		return Errf("failed to read file: %v", err)
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	lineNo := 0
	emitted := 0
	for scanner.Scan() {
		lineNo++
		if in.Offset > 0 && lineNo < in.Offset {
			continue
		}
		if emitted >= limit {
			break
		}
		fmt.Fprintf(&sb, "%d\t%s\n", lineNo, scanner.Text())
		emitted++
	}
	if err := scanner.Err(); err != nil {
		return Errf("error reading file: %v", err)
	}
	if sb.Len() == 0 {
		return Ok("(empty file)")
	}
	return Ok(sb.String())
}

// resolvePath resolves a potentially relative path against cwd.
func resolvePath(path, cwd string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(cwd, path))
}

func init() {
	Register(&ReadTool{})
}
