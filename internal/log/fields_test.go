package log

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/codepilot/codepilot/internal/message"
)

func TestKindNameCoversAllBlockKinds(t *testing.T) {
	require.Equal(t, "text", kindName(message.BlockText))
	require.Equal(t, "tool_use", kindName(message.BlockToolUse))
	require.Equal(t, "tool_result", kindName(message.BlockToolResult))
}

func TestMessagesFieldMarshalsTextBlock(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	msgs := []message.Message{message.NewUserText("hello")}
	logger.Info("turn", MessagesField(msgs))

	entries := logs.All()
	require.Len(t, entries, 1)
	field, ok := entries[0].ContextMap()["messages"]
	require.True(t, ok)
	require.NotEmpty(t, field)
}

func TestMessagesFieldMarshalsToolUseAndResultBlocks(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	blocks := []message.ContentBlock{
		message.NewToolUseBlock("id1", "Read", json.RawMessage(`{"file_path":"a.go"}`)),
		message.NewToolResultBlock("id1", "contents", false),
	}
	msgs := []message.Message{{Role: message.RoleAssistant, Content: message.BlocksContent(blocks)}}
	logger.Info("turn", MessagesField(msgs))

	entries := logs.All()
	require.Len(t, entries, 1)
	_, ok := entries[0].ContextMap()["messages"]
	require.True(t, ok)
}

func TestUsageFieldMarshalsCounts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	logger.Info("usage", UsageField(message.Usage{InputTokens: 10, OutputTokens: 20}))

	entries := logs.All()
	require.Len(t, entries, 1)
	usage, ok := entries[0].ContextMap()["usage"].(map[string]interface{})
	require.True(t, ok)
	require.EqualValues(t, 10, usage["input_tokens"])
	require.EqualValues(t, 20, usage["output_tokens"])
}
