package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/codepilot/codepilot/internal/apiclient"
	"github.com/codepilot/codepilot/internal/message"
)

const compactMaxTokens = 2048

const compactSystemPrompt = "You are summarizing a coding conversation so it can continue with a smaller context window. " +
	"Preserve: the user's goal, files touched, decisions made, and any unresolved next step. Be concise."

// Compact summarizes the current conversation and replaces everything after
// the bootstrap prefix with a single user turn carrying the summary (token
// usage is reset as well), freeing up context for /model
// switches or long-running sessions. focus, if non-empty, steers the
// summary toward a particular topic.
func (l *Loop) Compact(ctx context.Context, focus string) (summary string, originalCount int, err error) {
	msgs := l.Messages()
	originalCount = len(msgs)
	if originalCount <= l.bootstrapLen {
		return "", originalCount, nil
	}

	conversationText := message.BuildConversationText(msgs)
	if focus != "" {
		conversationText += fmt.Sprintf("\n\nFocus the summary on: %s", focus)
	}

	req := apiclient.Request{
		Model:        l.Model,
		MaxTokens:    compactMaxTokens,
		SystemPrompt: compactSystemPrompt,
		Messages:     []message.Message{message.NewUserText(conversationText)},
	}

	result, err := l.Client.Send(ctx, req, nil)
	if err != nil {
		return "", originalCount, fmt.Errorf("failed to generate summary: %w", err)
	}

	summary = strings.TrimSpace(blocksText(result.Blocks))

	l.mu.Lock()
	bootstrap := append([]message.Message{}, l.messages[:l.bootstrapLen]...)
	l.messages = append(bootstrap, message.NewUserText("Conversation summary:\n\n"+summary))
	l.usage = message.Usage{}
	l.mu.Unlock()

	return summary, originalCount, nil
}

func blocksText(blocks []message.ContentBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		if b.Kind == message.BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}
