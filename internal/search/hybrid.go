// Package search fuses lexical (BM25) and semantic search over an
// indexed project tree into ranked, snippet-bearing results.
package search

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/codepilot/codepilot/internal/search/bm25"
	"github.com/codepilot/codepilot/internal/search/semantic"
	"github.com/codepilot/codepilot/internal/search/walk"
)

const rrfK = 60
const maxSnippetsPerFile = 3
const defaultContextLines = 3

// Engine indexes a project root and serves hybrid queries against it.
type Engine struct {
	root string

	mu       sync.RWMutex
	lexical  *bm25.Index
	semantic *semantic.Index
	mtimes   map[string][2]int64 // path -> (seconds, nanoseconds)
}

// New builds an engine rooted at root. sem may be nil, in which case
// queries fall back to lexical-only ranking.
func New(root string, sem *semantic.Index) (*Engine, error) {
	lex, err := bm25.New()
	if err != nil {
		return nil, err
	}
	return &Engine{root: root, lexical: lex, semantic: sem, mtimes: map[string][2]int64{}}, nil
}

// WalkAll performs a full (re)index of every indexable file under root.
func (e *Engine) WalkAll(ctx context.Context) error {
	entries, err := walk.Walk(e.root)
	if err != nil {
		return err
	}
	changed := map[string]string{}
	e.mu.Lock()
	for _, ent := range entries {
		info, statErr := os.Stat(ent.AbsPath)
		if statErr != nil || !walk.IsIndexable(ent.AbsPath, info.Size()) {
			continue
		}
		content, readErr := os.ReadFile(ent.AbsPath)
		if readErr != nil {
			continue
		}
		if err := e.lexical.Add(ent.RelPath, string(content)); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("indexing %s: %w", ent.RelPath, err)
		}
		e.mtimes[ent.RelPath] = [2]int64{info.ModTime().Unix(), int64(info.ModTime().Nanosecond())}
		changed[ent.RelPath] = string(content)
	}
	e.mu.Unlock()

	if e.semantic != nil {
		return e.semantic.EmbedAll(ctx, changed)
	}
	return nil
}

// WalkIncremental re-indexes only files whose mtime changed since the
// last walk, and drops files that no longer exist.
func (e *Engine) WalkIncremental(ctx context.Context) error {
	entries, err := walk.Walk(e.root)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	changed := map[string]string{}
	var removed []string

	e.mu.Lock()
	for _, ent := range entries {
		seen[ent.RelPath] = true
		info, statErr := os.Stat(ent.AbsPath)
		if statErr != nil || !walk.IsIndexable(ent.AbsPath, info.Size()) {
			continue
		}
		mt := [2]int64{info.ModTime().Unix(), int64(info.ModTime().Nanosecond())}
		if prev, ok := e.mtimes[ent.RelPath]; ok && prev == mt {
			continue
		}
		content, readErr := os.ReadFile(ent.AbsPath)
		if readErr != nil {
			continue
		}
		if err := e.lexical.Add(ent.RelPath, string(content)); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("indexing %s: %w", ent.RelPath, err)
		}
		e.mtimes[ent.RelPath] = mt
		changed[ent.RelPath] = string(content)
	}
	for path := range e.mtimes {
		if !seen[path] {
			removed = append(removed, path)
			_ = e.lexical.Remove(path)
		}
	}
	for _, path := range removed {
		delete(e.mtimes, path)
	}
	e.mu.Unlock()

	if e.semantic != nil {
		return e.semantic.EmbedIncremental(ctx, changed, removed)
	}
	return nil
}

// Snippet is one matched context window within a file.
type Snippet struct {
	StartLine int
	Text      string
}

// Result is one ranked hybrid search hit.
type Result struct {
	Path     string
	Score    float64
	Snippets []Snippet
}

// boostRules apply multiplicatively, first-match-wins in the order
// below, against the lowercased path: test files are deprioritized
// relative to the code they test, mocks more so, docs are deprioritized
// relative to source, and library source is boosted over throwaway
// scripts.
var boostRules = []struct {
	match func(p string) bool
	boost float64
}{
	{func(p string) bool {
		return strings.Contains(p, "/test") || strings.Contains(p, "_test.") ||
			strings.Contains(p, ".test.") || strings.Contains(p, ".spec.")
	}, 0.5},
	{func(p string) bool { return strings.Contains(p, "/mock") || strings.Contains(p, ".mock.") }, 0.4},
	{func(p string) bool { return strings.HasSuffix(p, ".md") || strings.Contains(p, "/docs/") }, 0.6},
	{func(p string) bool { return strings.Contains(p, "/src") || strings.Contains(p, "/lib") }, 1.1},
}

func boostFor(path string) float64 {
	p := strings.ToLower(path)
	for _, r := range boostRules {
		if r.match(p) {
			return r.boost
		}
	}
	return 1.0
}

// Search runs the query through both legs, fuses with reciprocal rank
// fusion, applies path-based score boosting, and attaches snippets.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return e.SearchWithContext(ctx, query, limit, defaultContextLines)
}

// SearchWithContext is Search with an explicit snippet context-window size
// (lines of surrounding context on each side of a match).
func (e *Engine) SearchWithContext(ctx context.Context, query string, limit, contextLines int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	if contextLines <= 0 {
		contextLines = defaultContextLines
	}
	fetchLimit := limit * 4

	e.mu.RLock()
	lex, err := e.lexical.Search(query, fetchLimit)
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var sem []semantic.Result
	if e.semantic != nil {
		sem, err = e.semantic.Search(ctx, query, fetchLimit)
		if err != nil {
			return nil, err
		}
	}

	rrf := map[string]float64{}
	for rank, r := range lex {
		rrf[r.Path] += 1.0 / float64(rrfK+rank+1)
	}
	for rank, r := range sem {
		rrf[r.Path] += 1.0 / float64(rrfK+rank+1)
	}

	type scored struct {
		path  string
		score float64
	}
	var all []scored
	for path, score := range rrf {
		all = append(all, scored{path: path, score: score * boostFor(path)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]Result, 0, len(all))
	for _, s := range all {
		snippets := e.extractSnippets(s.path, query, contextLines)
		out = append(out, Result{Path: s.path, Score: s.score, Snippets: snippets})
	}
	return out, nil
}

func (e *Engine) extractSnippets(relPath, query string, contextLines int) []Snippet {
	terms := strings.Fields(strings.ToLower(query))
	f, err := os.Open(filepath.Join(e.root, relPath))
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	var hitLines []int
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, t := range terms {
			if t != "" && strings.Contains(lower, t) {
				hitLines = append(hitLines, i)
				break
			}
		}
	}
	if len(hitLines) == 0 {
		return nil
	}

	type window struct{ start, end int }
	var windows []window
	for _, h := range hitLines {
		start := max(0, h-contextLines)
		end := min(len(lines)-1, h+contextLines)
		if len(windows) > 0 && start <= windows[len(windows)-1].end+1 {
			windows[len(windows)-1].end = end
		} else {
			windows = append(windows, window{start, end})
		}
	}

	var snippets []Snippet
	for _, w := range windows {
		if len(snippets) >= maxSnippetsPerFile {
			break
		}
		snippets = append(snippets, Snippet{
			StartLine: w.start + 1,
			Text:      strings.Join(lines[w.start:w.end+1], "\n"),
		})
	}
	return snippets
}
