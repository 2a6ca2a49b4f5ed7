// Package apiclient builds and sends streaming Messages API requests. It
// leans on anthropic-sdk-go for request parameter construction and typing,
// but performs the HTTP round trip and SSE body parsing itself through
// internal/stream, so the decoder stays testable against synthetic bytes
// independent of the SDK's own event union.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/codepilot/codepilot/internal/apperr"
	"github.com/codepilot/codepilot/internal/message"
	"github.com/codepilot/codepilot/internal/stream"
	"github.com/codepilot/codepilot/internal/tool"
)

const (
	defaultBaseURL      = "https://api.anthropic.com"
	apiVersion          = "2023-06-01"
	maxRequestBodyBytes = 4 << 20 // 4 MiB
	maxToolResultBytes  = 500 << 10
	requestTimeout      = 300 * time.Second

	// requestsPerSecond and burst bound outbound turn rate so a runaway
	// loop (or a misconfigured caller) cannot hammer the API faster than a
	// human-in-the-loop CLI session ever would.
	requestsPerSecond = 2
	requestBurst      = 4
)

// AuthMode selects how credentials are attached to the request.
type AuthMode int

const (
	AuthAPIKey AuthMode = iota
	AuthOAuthBearer
)

// Client sends Messages API requests over HTTP and decodes the SSE
// response body with internal/stream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	authMode   AuthMode
	limiter    *rate.Limiter
}

// New constructs a Client against the default Anthropic API endpoint.
// token is either a raw API key (AuthAPIKey) or an OAuth access token
// (AuthOAuthBearer).
func New(token string, mode AuthMode) *Client {
	return NewWithBaseURL(token, mode, defaultBaseURL)
}

// NewWithBaseURL is New with an explicit API base URL, for enterprise
// gateway deployments that proxy the Messages API under a different host.
func NewWithBaseURL(token string, mode AuthMode, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		token:      token,
		authMode:   mode,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}
}

// Request describes one turn's worth of completion input.
type Request struct {
	Model        string
	MaxTokens    int
	SystemPrompt string
	Messages     []message.Message
	Tools        []tool.Tool
}

// truncateToolResults caps each tool_result block's content so a single
// oversized tool output cannot by itself blow the request body budget.
func truncateToolResults(msgs []message.Message) []message.Message {
	out := make([]message.Message, len(msgs))
	for i, m := range msgs {
		if !m.Content.IsBlocks() {
			out[i] = m
			continue
		}
		blocks := make([]message.ContentBlock, len(m.Content.Blocks))
		copy(blocks, m.Content.Blocks)
		for j, b := range blocks {
			if b.Kind == message.BlockToolResult && len(b.Content) > maxToolResultBytes {
				blocks[j].Content = b.Content[:maxToolResultBytes] + "\n[truncated]"
			}
		}
		out[i] = message.Message{Role: m.Role, Content: message.BlocksContent(blocks)}
	}
	return out
}

func toAnthropicMessages(msgs []message.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		if m.Content.IsBlocks() {
			for _, b := range m.Content.Blocks {
				switch b.Kind {
				case message.BlockText:
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				case message.BlockToolUse:
					var input any
					if len(b.Input) > 0 {
						_ = json.Unmarshal(b.Input, &input)
					} else {
						input = map[string]any{}
					}
					blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, input, b.Name))
				case message.BlockToolResult:
					blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
				}
			}
		} else {
			blocks = append(blocks, anthropic.NewTextBlock(m.Content.Text))
		}

		if m.Role == message.RoleUser {
			out = append(out, anthropic.NewUserMessage(blocks...))
		} else {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	return out
}

func toAnthropicTools(tools []tool.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema map[string]any
		_ = json.Unmarshal(t.Schema(), &schema)

		inputSchema := anthropic.ToolInputSchemaParam{}
		if props, ok := schema["properties"]; ok {
			inputSchema.Properties = props
		}
		if required, ok := schema["required"].([]any); ok {
			for _, r := range required {
				if s, ok := r.(string); ok {
					inputSchema.Required = append(inputSchema.Required, s)
				}
			}
		}

		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: inputSchema,
			},
		})
	}
	return out
}

// buildBody marshals an SDK MessageNewParams and stitches in "stream":
// true, since the HTTP round trip here bypasses the SDK's own streaming
// helper in favor of internal/stream's decoder.
func buildBody(req Request) ([]byte, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  toAnthropicMessages(truncateToolResults(req.Messages)),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, apperr.New(apperr.CategoryProtocol, "failed to marshal request", err)
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, apperr.New(apperr.CategoryProtocol, "failed to re-marshal request", err)
	}
	asMap["stream"] = true

	body, err := json.Marshal(asMap)
	if err != nil {
		return nil, apperr.New(apperr.CategoryProtocol, "failed to marshal streaming request", err)
	}
	if len(body) > maxRequestBodyBytes {
		return nil, apperr.ErrRequestTooLarge
	}
	return body, nil
}

// Send issues req and streams the decoded response, invoking onText for
// each live text delta as it arrives.
func (c *Client) Send(ctx context.Context, req Request, onText stream.OnText) (*stream.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperr.ErrCancelled
	}

	body, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.New(apperr.CategoryTransport, "failed to build request", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("x-request-id", uuid.NewString())
	switch c.authMode {
	case AuthOAuthBearer:
		httpReq.Header.Set("authorization", "Bearer "+c.token)
	default:
		httpReq.Header.Set("x-api-key", c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.ErrCancelled
		}
		return nil, apperr.New(apperr.CategoryTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, apperr.New(apperr.CategoryProtocol, "request rejected — try /clear", nil)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.New(apperr.CategoryAuth, fmt.Sprintf("authentication failed: %s", errBody), nil)
	}
	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.New(apperr.CategoryTransport, fmt.Sprintf("http %d: %s", resp.StatusCode, errBody), nil)
	}

	result, err := stream.Decode(ctx, resp.Body, onText, nil)
	if err != nil {
		return nil, apperr.New(apperr.CategoryProtocol, "failed to decode stream", err)
	}
	return result, nil
}
