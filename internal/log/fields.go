package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codepilot/codepilot/internal/message"
)

func kindName(k message.BlockKind) string {
	switch k {
	case message.BlockText:
		return "text"
	case message.BlockToolUse:
		return "tool_use"
	case message.BlockToolResult:
		return "tool_result"
	default:
		return "unknown"
	}
}

type blockMarshaler message.ContentBlock

func (b blockMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", kindName(b.Kind))
	switch b.Kind {
	case message.BlockText:
		enc.AddString("text", b.Text)
	case message.BlockToolUse:
		enc.AddString("id", b.ID)
		enc.AddString("name", b.Name)
		enc.AddString("input", string(b.Input))
	case message.BlockToolResult:
		enc.AddString("tool_use_id", b.ToolUseID)
		enc.AddString("content", b.Content)
		enc.AddBool("is_error", b.IsError)
	}
	return nil
}

type blocksMarshaler []message.ContentBlock

func (b blocksMarshaler) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, blk := range b {
		_ = enc.AppendObject(blockMarshaler(blk))
	}
	return nil
}

type messageMarshaler message.Message

func (m messageMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("role", string(m.Role))
	if m.Content.IsBlocks() {
		_ = enc.AddArray("blocks", blocksMarshaler(m.Content.Blocks))
	} else {
		enc.AddString("text", m.Content.Text)
	}
	return nil
}

type messagesMarshaler []message.Message

func (m messagesMarshaler) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, msg := range m {
		_ = enc.AppendObject(messageMarshaler(msg))
	}
	return nil
}

// MessagesField creates a zap field logging a full conversation.
func MessagesField(messages []message.Message) zap.Field {
	return zap.Array("messages", messagesMarshaler(messages))
}

type usageMarshaler message.Usage

func (u usageMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("input_tokens", u.InputTokens)
	enc.AddInt("output_tokens", u.OutputTokens)
	return nil
}

// UsageField creates a zap field logging token usage.
func UsageField(usage message.Usage) zap.Field {
	return zap.Object("usage", usageMarshaler(usage))
}
