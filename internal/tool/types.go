// Package tool implements the tool registry: each tool declares a stable
// name matched against model tool-use, a human description sent to the
// model, a JSON schema for its input, and an execute method returning a
// ToolOutput.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Output is the result of one tool execution. Content is what gets
// serialized into the ToolResult block sent back to the model.
type Output struct {
	Content string
	IsError bool
}

func Ok(content string) Output  { return Output{Content: content} }
func Err(content string) Output { return Output{Content: content, IsError: true} }
func Errf(format string, a ...any) Output {
	return Output{Content: fmt.Sprintf(format, a...), IsError: true}
}

// Tool is implemented by every registered tool.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, input json.RawMessage, cwd string) Output
}
