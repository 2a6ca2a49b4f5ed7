package message

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewUserText(t *testing.T) {
	msg := NewUserText("hello")
	if msg.Role != RoleUser {
		t.Errorf("expected role %q, got %q", RoleUser, msg.Role)
	}
	if msg.Content.IsBlocks() {
		t.Errorf("expected plain text content")
	}
	if msg.Text() != "hello" {
		t.Errorf("expected text 'hello', got %q", msg.Text())
	}
}

func TestNewAssistantBlocksToolUse(t *testing.T) {
	input := json.RawMessage(`{"file_path":"/tmp/x"}`)
	msg := NewAssistantBlocks([]ContentBlock{
		NewTextBlock("looking"),
		NewToolUseBlock("tc1", "Read", input),
	})
	if msg.Role != RoleAssistant {
		t.Errorf("expected role %q, got %q", RoleAssistant, msg.Role)
	}
	if msg.Text() != "looking" {
		t.Errorf("expected text 'looking', got %q", msg.Text())
	}
	calls := msg.ToolUseBlocks()
	if len(calls) != 1 {
		t.Fatalf("expected 1 tool-use block, got %d", len(calls))
	}
	if calls[0].Name != "Read" || calls[0].ID != "tc1" {
		t.Errorf("unexpected tool-use block: %+v", calls[0])
	}
}

func TestNewUserToolResults(t *testing.T) {
	msg := NewUserToolResults([]ContentBlock{
		NewToolResultBlock("tc1", "file content", false),
	})
	if !msg.Content.IsBlocks() {
		t.Fatalf("expected block content")
	}
	if msg.Content.Blocks[0].Kind != BlockToolResult {
		t.Errorf("expected tool result block")
	}
	if msg.Content.Blocks[0].Content != "file content" {
		t.Errorf("unexpected content: %q", msg.Content.Blocks[0].Content)
	}
}

func TestUsageAdd(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5}
	u.Add(Usage{InputTokens: 3, OutputTokens: 7})
	if u.InputTokens != 13 || u.OutputTokens != 12 {
		t.Errorf("unexpected usage after add: %+v", u)
	}
}

func TestStopReasonString(t *testing.T) {
	cases := []struct {
		r    StopReason
		want string
	}{
		{StopEndTurn, "end_turn"},
		{StopToolUse, "tool_use"},
		{StopMaxTokens, "max_tokens"},
	}
	for _, c := range cases {
		if got := c.r.String(); got != c.want {
			t.Errorf("StopReason(%d).String() = %q, want %q", c.r, got, c.want)
		}
	}
}

func TestNeedsCompaction(t *testing.T) {
	if NeedsCompaction(0, 0) {
		t.Errorf("zero limit should never need compaction")
	}
	if NeedsCompaction(100, 1000) {
		t.Errorf("10%% usage should not need compaction")
	}
	if !NeedsCompaction(950, 1000) {
		t.Errorf("95%% usage should need compaction")
	}
}

func TestBuildConversationTextTruncatesToolResults(t *testing.T) {
	longContent := strings.Repeat("x", 600)
	msgs := []Message{
		NewUserText("fix the bug"),
		NewAssistantBlocks([]ContentBlock{NewToolUseBlock("tc1", "Bash", json.RawMessage(`{}`))}),
		NewUserToolResults([]ContentBlock{NewToolResultBlock("tc1", longContent, false)}),
	}
	text := BuildConversationText(msgs)
	if !strings.Contains(text, "User: fix the bug") {
		t.Errorf("expected user text in summary, got %q", text)
	}
	if !strings.Contains(text, "[Tool Call: Bash]") {
		t.Errorf("expected tool call marker in summary, got %q", text)
	}
	if !strings.Contains(text, "...[truncated]") {
		t.Errorf("expected long tool result to be truncated, got %q", text)
	}
}
