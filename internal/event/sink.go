// Package event defines the agent's event fan-out interface: the one-way
// notifications a UI receives as the loop runs, plus the blocking
// permission-prompt round trip.
package event

import (
	"encoding/json"

	"github.com/codepilot/codepilot/internal/message"
)

// Sink receives agent-loop notifications. All methods are optional — embed
// NoopSink to get safe defaults and override only what you need.
type Sink interface {
	OnText(chunk string)
	OnError(msg string)
	OnToolUseStart(name, id string, input json.RawMessage)
	OnToolUseEnd(name string)
	OnToolExecuting(name string, input json.RawMessage)
	OnToolResult(name, output string, isError bool)
	OnUsage(usage message.Usage)
	OnTurnComplete(stopReason string)
}

// NoopSink implements Sink with every method a no-op. Embed it in a
// concrete sink to avoid implementing methods you don't care about.
type NoopSink struct{}

func (NoopSink) OnText(string)                                  {}
func (NoopSink) OnError(string)                                 {}
func (NoopSink) OnToolUseStart(string, string, json.RawMessage) {}
func (NoopSink) OnToolUseEnd(string)                            {}
func (NoopSink) OnToolExecuting(string, json.RawMessage)        {}
func (NoopSink) OnToolResult(string, string, bool)              {}
func (NoopSink) OnUsage(message.Usage)                          {}
func (NoopSink) OnTurnComplete(string)                          {}

// PermissionRequest is sent to a concrete UI when the permission engine
// returns Unresolved and a live decision is needed. Reply is blocking from
// the tool-executor side (the agent loop waits on it) and event-driven from
// the UI side (the UI sends on it whenever the human responds).
type PermissionRequest struct {
	ToolName    string
	Description string
	Reply       chan bool
}

// NewPermissionRequest allocates a PermissionRequest with a ready reply channel.
func NewPermissionRequest(toolName, description string) *PermissionRequest {
	return &PermissionRequest{ToolName: toolName, Description: description, Reply: make(chan bool, 1)}
}

// PermissionPrompter is implemented by a UI that can interactively ask the
// user to approve an unresolved tool invocation.
type PermissionPrompter interface {
	Prompt(req *PermissionRequest) bool
}

// ChannelSink fans events out over channels so a UI running in a different
// goroutine can receive them without directly implementing Sink. Grounded
// on the teacher's background-task notification pattern (internal/task).
type ChannelSink struct {
	Text          chan string
	Errors        chan string
	ToolUseStart  chan ToolUseStartEvent
	ToolUseEnd    chan string
	ToolExecuting chan ToolExecutingEvent
	ToolResult    chan ToolResultEvent
	Usage         chan message.Usage
	TurnComplete  chan string
}

type ToolUseStartEvent struct {
	Name, ID string
	Input    json.RawMessage
}

type ToolExecutingEvent struct {
	Name  string
	Input json.RawMessage
}

type ToolResultEvent struct {
	Name    string
	Output  string
	IsError bool
}

// NewChannelSink creates a ChannelSink with buffered channels so that the
// agent loop never blocks on a slow or absent reader.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{
		Text:          make(chan string, buffer),
		Errors:        make(chan string, buffer),
		ToolUseStart:  make(chan ToolUseStartEvent, buffer),
		ToolUseEnd:    make(chan string, buffer),
		ToolExecuting: make(chan ToolExecutingEvent, buffer),
		ToolResult:    make(chan ToolResultEvent, buffer),
		Usage:         make(chan message.Usage, buffer),
		TurnComplete:  make(chan string, buffer),
	}
}

func (c *ChannelSink) OnText(chunk string) { trySend(c.Text, chunk) }
func (c *ChannelSink) OnError(msg string)  { trySend(c.Errors, msg) }
func (c *ChannelSink) OnToolUseStart(name, id string, input json.RawMessage) {
	trySend(c.ToolUseStart, ToolUseStartEvent{Name: name, ID: id, Input: input})
}
func (c *ChannelSink) OnToolUseEnd(name string) { trySend(c.ToolUseEnd, name) }
func (c *ChannelSink) OnToolExecuting(name string, input json.RawMessage) {
	trySend(c.ToolExecuting, ToolExecutingEvent{Name: name, Input: input})
}
func (c *ChannelSink) OnToolResult(name, output string, isError bool) {
	trySend(c.ToolResult, ToolResultEvent{Name: name, Output: output, IsError: isError})
}
func (c *ChannelSink) OnUsage(u message.Usage)     { trySend(c.Usage, u) }
func (c *ChannelSink) OnTurnComplete(reason string) { trySend(c.TurnComplete, reason) }

func trySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
