package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/codepilot/codepilot/internal/config"
	"github.com/codepilot/codepilot/internal/search"
)

var (
	enginesMu sync.Mutex
	engines   = map[string]*search.Engine{}
)

func engineFor(root string) (*search.Engine, error) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	if e, ok := engines[root]; ok {
		return e, nil
	}
	e, err := search.New(root, nil)
	if err != nil {
		return nil, err
	}
	engines[root] = e
	return e, nil
}

type searchInput struct {
	Query        string `json:"query"`
	Limit        int    `json:"limit"`
	ContextLines int    `json:"context_lines"`
	Reindex      bool   `json:"reindex"`
}

// SearchTool runs the hybrid code search engine over cwd. The engine is
// built without a semantic index, so results are ranked by BM25 (plus path
// boosts) only; no embeddings are computed.
type SearchTool struct{}

func (t *SearchTool) Name() string        { return "Search" }
func (t *SearchTool) Description() string { return "Search the project for relevant code by meaning and keyword" }

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"limit": {"type": "integer"},
			"context_lines": {"type": "integer", "description": "lines of context around each match"},
			"reindex": {"type": "boolean", "description": "force a full re-walk before searching"}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in searchInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.Query == "" {
		return Err("query is required")
	}

	engine, err := engineFor(cwd)
	if err != nil {
		return Errf("failed to initialize search index: %v", err)
	}

	if in.Reindex {
		if err := engine.WalkAll(ctx); err != nil {
			return Errf("reindex failed: %v", err)
		}
	} else {
		if err := engine.WalkIncremental(ctx); err != nil {
			return Errf("incremental reindex failed: %v", err)
		}
	}

	tuning := config.LoadPreferences(cwd).Search
	limit := in.Limit
	if limit == 0 {
		limit = tuning.DefaultLimit
	}
	contextLines := in.ContextLines
	if contextLines == 0 {
		contextLines = tuning.DefaultContextLines
	}

	results, err := engine.SearchWithContext(ctx, in.Query, limit, contextLines)
	if err != nil {
		return Errf("search failed: %v", err)
	}
	if len(results) == 0 {
		return Ok("(no matches)")
	}

	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "%s (score=%.4f)\n", r.Path, r.Score)
		for _, s := range r.Snippets {
			fmt.Fprintf(&sb, "  L%d:\n", s.StartLine)
			for _, line := range strings.Split(s.Text, "\n") {
				fmt.Fprintf(&sb, "    %s\n", line)
			}
		}
	}
	return Ok(sb.String())
}

func init() {
	Register(&SearchTool{})
}
