// Package session implements the agent loop: the turn-by-turn drive of
// send message -> stream response -> execute requested tools -> repeat,
// including the permission-checked, concurrent three-phase tool execution
// model (one goroutine per allowed call) and conversation compaction.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/codepilot/codepilot/internal/apiclient"
	"github.com/codepilot/codepilot/internal/apperr"
	"github.com/codepilot/codepilot/internal/config"
	"github.com/codepilot/codepilot/internal/event"
	"github.com/codepilot/codepilot/internal/log"
	"github.com/codepilot/codepilot/internal/message"
	"github.com/codepilot/codepilot/internal/permission"
	"github.com/codepilot/codepilot/internal/stream"
	"github.com/codepilot/codepilot/internal/tool"
)

// defaultMaxTokens is the fixed upper bound on response length, per the
// Messages API request contract.
const defaultMaxTokens = 16384

// Loop drives one conversation against the Messages API, maintaining
// message history, token usage, and the current model/system prompt.
type Loop struct {
	ID           string
	Client       *apiclient.Client
	Model        string
	SystemPrompt string
	ProjectDir   string
	Permissions  permission.Config
	Registry     *tool.Registry
	Sink         event.Sink
	Prompter     event.PermissionPrompter

	mu           sync.Mutex
	messages     []message.Message
	bootstrapLen int
	usage        message.Usage
}

// New constructs a Loop, seeding the conversation with its bootstrap
// prefix (see BootstrapMessages). sink may be nil, in which case a
// NoopSink is used. model, if empty, falls back to the project's
// .codepilot.yaml preference.
func New(client *apiclient.Client, model, projectDir string, registry *tool.Registry, sink event.Sink) *Loop {
	if sink == nil {
		sink = event.NoopSink{}
	}
	if model == "" {
		model = config.LoadPreferences(projectDir).Model
	}
	bootstrap := BootstrapMessages(projectDir)
	return &Loop{
		ID:           uuid.NewString(),
		Client:       client,
		Model:        model,
		ProjectDir:   projectDir,
		Permissions:  config.Load(projectDir),
		Registry:     registry,
		Sink:         sink,
		messages:     bootstrap,
		bootstrapLen: len(bootstrap),
	}
}

// Messages returns a copy of the current conversation.
func (l *Loop) Messages() []message.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]message.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Usage returns accumulated token usage.
func (l *Loop) Usage() message.Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usage
}

// Clear resets the conversation back to its bootstrap prefix, discarding
// everything since and resetting usage. Used by the /clear slash command.
func (l *Loop) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:l.bootstrapLen]
	l.usage = message.Usage{}
}

func (l *Loop) rollbackPoint() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// rollbackTo truncates the conversation back to a previously recorded
// point, discarding everything appended since — a cancelled or failed
// turn must not leave partial assistant/tool state behind.
func (l *Loop) rollbackTo(point int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if point <= len(l.messages) {
		l.messages = l.messages[:point]
	}
}

func (l *Loop) appendMessage(m message.Message) {
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
}

// SendMessage appends userText as a user turn and drives the agent loop
// until the model stops without requesting further tools, the context is
// cancelled, or an unrecoverable API error occurs. On failure the
// conversation is rolled back to its state before this call.
func (l *Loop) SendMessage(ctx context.Context, userText string) error {
	point := l.rollbackPoint()
	l.appendMessage(message.NewUserText(userText))

	for {
		if ctx.Err() != nil {
			l.rollbackTo(point)
			return apperr.ErrCancelled
		}

		turn := log.NextTurn()
		result, err := l.runTurn(ctx, turn)
		if err != nil {
			l.rollbackTo(point)
			l.Sink.OnError(err.Error())
			return err
		}

		l.appendMessage(message.NewAssistantBlocks(result.Blocks))
		l.mu.Lock()
		l.usage.Add(result.Usage)
		usage := l.usage
		l.mu.Unlock()
		l.Sink.OnUsage(usage)

		toolUses := blocksOfKind(result.Blocks, message.BlockToolUse)
		if len(toolUses) == 0 || result.StopReason != message.StopToolUse {
			l.Sink.OnTurnComplete(result.StopReason.String())
			return nil
		}

		results := l.executeTools(ctx, toolUses)
		l.appendMessage(message.NewUserToolResults(results))
	}
}

func blocksOfKind(blocks []message.ContentBlock, kind message.BlockKind) []message.ContentBlock {
	var out []message.ContentBlock
	for _, b := range blocks {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func (l *Loop) runTurn(ctx context.Context, turn int) (*stream.Result, error) {
	maxTokens := defaultMaxTokens
	msgs := l.Messages()

	log.WriteDevRequest(turn, l.Model, maxTokens, l.SystemPrompt, msgs)

	req := apiclient.Request{
		Model:        l.Model,
		MaxTokens:    maxTokens,
		SystemPrompt: l.SystemPrompt,
		Messages:     msgs,
		Tools:        l.Registry.List(),
	}

	result, err := l.Client.Send(ctx, req, l.Sink.OnText)
	if err != nil {
		return nil, err
	}
	log.WriteDevResponse(turn, result)
	return result, nil
}
