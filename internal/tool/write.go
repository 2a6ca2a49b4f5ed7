package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type writeInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// WriteTool writes content to a file, creating parent directories as needed.
type WriteTool struct{}

func (t *WriteTool) Name() string        { return "Write" }
func (t *WriteTool) Description() string { return "Write content to a file, creating it if necessary" }

func (t *WriteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string"},
			"content": {"type": "string"}
		},
		"required": ["file_path", "content"]
	}`)
}

func (t *WriteTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in writeInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.FilePath == "" {
		return Err("file_path is required")
	}
	path := resolvePath(in.FilePath, cwd)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Errf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(in.Content), 0o644); err != nil {
		return Errf("failed to write file: %v", err)
	}
	return Ok(fmt.Sprintf("Wrote %d bytes to %s", len(in.Content), path))
}

func init() {
	Register(&WriteTool{})
}
