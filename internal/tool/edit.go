package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type editInput struct {
	FilePath   string `json:"file_path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// EditTool performs exact string-replacement edits on a file.
type EditTool struct{}

func (t *EditTool) Name() string        { return "Edit" }
func (t *EditTool) Description() string { return "Replace an exact string occurrence in a file" }

func (t *EditTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string"},
			"old_string": {"type": "string"},
			"new_string": {"type": "string"},
			"replace_all": {"type": "boolean"}
		},
		"required": ["file_path", "old_string", "new_string"]
	}`)
}

func (t *EditTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in editInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.FilePath == "" {
		return Err("file_path is required")
	}
	if in.OldString == in.NewString {
		return Err("old_string and new_string must differ")
	}
	path := resolvePath(in.FilePath, cwd)

	data, err := os.ReadFile(path)
	if err != nil {
		return Errf("failed to read file: %v", err)
	}
	content := string(data)

	count := strings.Count(content, in.OldString)
	if count == 0 {
		return Err("old_string not found in file")
	}
	if count > 1 && !in.ReplaceAll {
		return Errf("old_string is not unique in file (found %d occurrences); use replace_all=true", count)
	}

	var updated string
	var edited int
	if in.ReplaceAll {
		updated = strings.ReplaceAll(content, in.OldString, in.NewString)
		edited = count
	} else {
		updated = strings.Replace(content, in.OldString, in.NewString, 1)
		edited = 1
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return Errf("failed to write file: %v", err)
	}
	if edited > 1 {
		return Ok(fmt.Sprintf("Replaced %d occurrences", edited))
	}
	return Ok("Edited " + path)
}

func init() {
	Register(&EditTool{})
}
