// Package message defines the canonical conversation data model used across
// the codebase: messages, content blocks, usage, and stop reasons. All
// packages import from here to avoid circular dependencies.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role represents the role of a message participant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind discriminates the variants of a ContentBlock.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockToolUse
	BlockToolResult
)

// ContentBlock is a tagged union over Text, ToolUse, and ToolResult content,
// mirroring the model's own content-block shape. Only the fields relevant
// to Kind are populated.
type ContentBlock struct {
	Kind BlockKind

	// Text
	Text string

	// ToolUse
	ID    string
	Name  string
	Input json.RawMessage

	// ToolResult
	ToolUseID string
	Content   string
	IsError   bool
}

func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Kind: BlockText, Text: text}
}

func NewToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Kind: BlockToolUse, ID: id, Name: name, Input: input}
}

func NewToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// Content is either plain text (the common case for a user turn) or an
// ordered list of content blocks (assistant turns, and tool-result turns).
type Content struct {
	Text     string
	Blocks   []ContentBlock
	isBlocks bool
}

func TextContent(text string) Content       { return Content{Text: text} }
func BlocksContent(b []ContentBlock) Content { return Content{Blocks: b, isBlocks: true} }

// IsBlocks reports whether this content is a block list rather than plain text.
func (c Content) IsBlocks() bool { return c.isBlocks }

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content Content
}

func NewUserText(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

func NewAssistantBlocks(blocks []ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: BlocksContent(blocks)}
}

func NewAssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

func NewUserToolResults(results []ContentBlock) Message {
	return Message{Role: RoleUser, Content: BlocksContent(results)}
}

// ToolUseBlocks returns the ToolUse blocks of a message, in order.
func (m Message) ToolUseBlocks() []ContentBlock {
	if !m.Content.IsBlocks() {
		return nil
	}
	var out []ContentBlock
	for _, b := range m.Content.Blocks {
		if b.Kind == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// Text concatenates all Text blocks of a message, or returns its plain text.
func (m Message) Text() string {
	if !m.Content.IsBlocks() {
		return m.Content.Text
	}
	var out strings.Builder
	for _, b := range m.Content.Blocks {
		if b.Kind == BlockText {
			out.WriteString(b.Text)
		}
	}
	return out.String()
}

// Usage holds monotonic token counters accumulated across turns within one
// send_message call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// StopReason is the reason the model stopped generating.
type StopReason int

const (
	StopEndTurn StopReason = iota
	StopToolUse
	StopMaxTokens
)

func (s StopReason) String() string {
	switch s {
	case StopToolUse:
		return "tool_use"
	case StopMaxTokens:
		return "max_tokens"
	default:
		return "end_turn"
	}
}

// NeedsCompaction reports whether the conversation is close enough to the
// model's input-token budget that it should be summarized before the next
// turn. limit is the model's input-token context window.
func NeedsCompaction(tokensUsed, limit int) bool {
	if limit <= 0 {
		return false
	}
	return float64(tokensUsed) >= 0.95*float64(limit)
}

// BuildConversationText renders messages as plain text for the compaction
// summarization call.
func BuildConversationText(msgs []Message) string {
	var sb strings.Builder
	sb.WriteString("Please summarize this coding conversation:\n\n")

	for _, msg := range msgs {
		switch msg.Role {
		case RoleUser:
			if msg.Content.IsBlocks() {
				for _, b := range msg.Content.Blocks {
					if b.Kind == BlockToolResult {
						content := b.Content
						if len(content) > 500 {
							content = content[:500] + "...[truncated]"
						}
						fmt.Fprintf(&sb, "[Tool Result]\n%s\n\n", content)
					}
				}
			} else if msg.Content.Text != "" {
				fmt.Fprintf(&sb, "User: %s\n\n", msg.Content.Text)
			}
		case RoleAssistant:
			if text := msg.Text(); text != "" {
				fmt.Fprintf(&sb, "Assistant: %s\n\n", text)
			}
			for _, b := range msg.ToolUseBlocks() {
				fmt.Fprintf(&sb, "[Tool Call: %s]\n", b.Name)
			}
		}
	}

	return sb.String()
}
