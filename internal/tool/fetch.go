package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type fetchInput struct {
	URL string `json:"url"`
}

const fetchMaxBody = 256 * 1024
const fetchTimeout = 30 * time.Second

// fetchLimiter caps outbound fetches process-wide so a pathological loop
// of URL requests can't turn this tool into an outbound flood.
var fetchLimiter = rate.NewLimiter(rate.Limit(5), 10)

// FetchTool retrieves a URL over HTTP. It has no representation in the
// permission engine's invocation tag set, so it is always denied by
// Phase 1 of the agent loop regardless of any allow/deny rule.
type FetchTool struct{}

func (t *FetchTool) Name() string        { return "Fetch" }
func (t *FetchTool) Description() string { return "Fetch the contents of a URL" }

func (t *FetchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"url": {"type": "string"}},
		"required": ["url"]
	}`)
}

func (t *FetchTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in fetchInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.URL == "" {
		return Err("url is required")
	}

	if err := fetchLimiter.Wait(ctx); err != nil {
		return Err("fetch rate limit wait cancelled")
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, in.URL, nil)
	if err != nil {
		return Errf("invalid url: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Errf("fetch failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBody))
	if err != nil {
		return Errf("failed to read response: %v", err)
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	textLike := strings.HasPrefix(ct, "text/") || strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") || strings.Contains(ct, "javascript")
	if !textLike && bytes.IndexByte(body, 0) >= 0 {
		return Ok(fmt.Sprintf("HTTP %d\n\n<binary data, %d bytes>", resp.StatusCode, len(body)))
	}
	return Ok(fmt.Sprintf("HTTP %d\n\n%s", resp.StatusCode, body))
}

func init() {
	Register(&FetchTool{})
}
