// Package stream implements a standalone decoder for the model's
// server-sent-event response stream. It is hand-rolled rather than built on
// the Anthropic SDK's own parsed event union so that it can be exercised in
// isolation against synthetic byte fixtures, independent of any network
// transport or SDK version skew.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/codepilot/codepilot/internal/apperr"
	"github.com/codepilot/codepilot/internal/message"
)

// OnText is invoked for every text delta, live, in arrival order.
type OnText func(chunk string)

// OnError is invoked when the stream carries an `error` event.
type OnError func(msg string)

// Result is the fully decoded outcome of one stream.
type Result struct {
	Blocks     []message.ContentBlock
	Usage      message.Usage
	StopReason message.StopReason
}

// blockKind mirrors the wire-level content_block_start `type` field.
type blockKind int

const (
	blockNone blockKind = iota
	blockTextKind
	blockToolUseKind
)

// current tracks the block being assembled between content_block_start and
// content_block_stop.
type current struct {
	kind  blockKind
	text  strings.Builder
	id    string
	name  string
	jsbuf strings.Builder
}

// Decode reads raw SSE bytes from r and returns the accumulated blocks,
// usage, and stop reason. It tolerates out-of-order or malformed JSON
// payloads, unknown event types, and partial tool-input JSON spanning many
// deltas. If ctx is cancelled while reading, Decode returns apperr.ErrCancelled.
func Decode(ctx context.Context, r io.Reader, onText OnText, onError OnError) (*Result, error) {
	if onText == nil {
		onText = func(string) {}
	}
	if onError == nil {
		onError = func(string) {}
	}

	res := &Result{StopReason: message.StopEndTurn}
	var cur *current

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var eventType string
	var dataLines []string

	done := false
	flush := func() {
		if eventType == "" && len(dataLines) == 0 {
			return
		}
		data := strings.Join(dataLines, "\n")
		if handleEvent(eventType, data, res, &cur, onText, onError) {
			done = true
		}
		eventType = ""
		dataLines = nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, apperr.ErrCancelled
		default:
		}

		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// ignore comments / unknown fields (e.g. "id:", "retry:")
		}

		if done {
			break
		}
	}
	if !done {
		flush()
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, apperr.ErrCancelled
		}
		return nil, apperr.New(apperr.CategoryTransport, "stream read failed", err)
	}
	return res, nil
}

// handleEvent processes one SSE event and reports whether the stream is
// now complete (message_stop or error).
func handleEvent(eventType, data string, res *Result, curp **current, onText OnText, onError OnError) (done bool) {
	switch eventType {
	case "message_start":
		var payload struct {
			Message struct {
				Usage struct {
					InputTokens int `json:"input_tokens"`
				} `json:"usage"`
			} `json:"message"`
		}
		if json.Unmarshal([]byte(data), &payload) == nil {
			res.Usage.InputTokens += payload.Message.Usage.InputTokens
		}

	case "content_block_start":
		var payload struct {
			ContentBlock struct {
				Type string `json:"type"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"content_block"`
		}
		_ = json.Unmarshal([]byte(data), &payload)
		switch payload.ContentBlock.Type {
		case "text":
			*curp = &current{kind: blockTextKind}
		case "tool_use":
			*curp = &current{kind: blockToolUseKind, id: payload.ContentBlock.ID, name: payload.ContentBlock.Name}
		default:
			*curp = nil
		}

	case "content_block_delta":
		cur := *curp
		if cur == nil {
			return
		}
		var payload struct {
			Delta struct {
				Type        string `json:"type"`
				Text        string `json:"text"`
				PartialJSON string `json:"partial_json"`
			} `json:"delta"`
		}
		if json.Unmarshal([]byte(data), &payload) != nil {
			return
		}
		switch {
		case cur.kind == blockTextKind && payload.Delta.Type == "text_delta":
			cur.text.WriteString(payload.Delta.Text)
			onText(payload.Delta.Text)
		case cur.kind == blockToolUseKind && payload.Delta.Type == "input_json_delta":
			cur.jsbuf.WriteString(payload.Delta.PartialJSON)
		}

	case "content_block_stop":
		cur := *curp
		if cur == nil {
			return
		}
		switch cur.kind {
		case blockTextKind:
			res.Blocks = append(res.Blocks, message.NewTextBlock(cur.text.String()))
		case blockToolUseKind:
			raw := []byte(cur.jsbuf.String())
			if len(strings.TrimSpace(cur.jsbuf.String())) == 0 || !json.Valid(raw) {
				raw = []byte("{}")
			}
			res.Blocks = append(res.Blocks, message.NewToolUseBlock(cur.id, cur.name, raw))
		}
		*curp = nil

	case "message_delta":
		var payload struct {
			Delta struct {
				StopReason string `json:"stop_reason"`
			} `json:"delta"`
			Usage struct {
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
		}
		if json.Unmarshal([]byte(data), &payload) == nil {
			res.Usage.OutputTokens += payload.Usage.OutputTokens
			switch payload.Delta.StopReason {
			case "tool_use":
				res.StopReason = message.StopToolUse
			case "max_tokens":
				res.StopReason = message.StopMaxTokens
			default:
				res.StopReason = message.StopEndTurn
			}
		}

	case "message_stop":
		return true

	case "error":
		var payload struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal([]byte(data), &payload)
		onError(payload.Error.Message)
		return true

	case "ping":
		// ignore

	default:
		// ignore unknown event types
	}
	return false
}
