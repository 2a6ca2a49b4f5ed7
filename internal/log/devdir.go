package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codepilot/codepilot/internal/message"
	"github.com/codepilot/codepilot/internal/stream"
)

// DevRequest is the request data dumped to CODEPILOT_DEV_DIR for one turn.
type DevRequest struct {
	Turn         int               `json:"turn"`
	Timestamp    time.Time         `json:"timestamp"`
	Model        string            `json:"model"`
	MaxTokens    int               `json:"max_tokens"`
	SystemPrompt string            `json:"system_prompt,omitempty"`
	Messages     []message.Message `json:"messages"`
}

// DevResponse is the response data dumped alongside DevRequest.
type DevResponse struct {
	Turn       int            `json:"turn"`
	Timestamp  time.Time      `json:"timestamp"`
	StopReason string         `json:"stop_reason"`
	Blocks     []message.ContentBlock `json:"blocks"`
	Usage      message.Usage  `json:"usage"`
}

// WriteDevRequest dumps turn request data to CODEPILOT_DEV_DIR, a no-op
// unless that env var was set at Init.
func WriteDevRequest(turn int, model string, maxTokens int, systemPrompt string, msgs []message.Message) {
	if !devEnabled {
		return
	}
	req := DevRequest{
		Turn: turn, Timestamp: time.Now().UTC(), Model: model,
		MaxTokens: maxTokens, SystemPrompt: systemPrompt, Messages: msgs,
	}
	writeJSON(filepath.Join(devDir, fmt.Sprintf("turn-%03d-request.json", turn)), req)
}

// WriteDevResponse dumps turn response data to CODEPILOT_DEV_DIR.
func WriteDevResponse(turn int, result *stream.Result) {
	if !devEnabled || result == nil {
		return
	}
	res := DevResponse{
		Turn: turn, Timestamp: time.Now().UTC(),
		StopReason: result.StopReason.String(),
		Blocks:     result.Blocks,
		Usage:      result.Usage,
	}
	writeJSON(filepath.Join(devDir, fmt.Sprintf("turn-%03d-response.json", turn)), res)
}

func writeJSON(filename string, data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filename, jsonData, 0o644)
}
