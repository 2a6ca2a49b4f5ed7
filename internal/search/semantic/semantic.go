// Package semantic implements a lazily-initialized embedding index on top
// of the Gemini embedding API, used as the second leg of hybrid search.
package semantic

import (
	"context"
	"fmt"
	"math"
	"sync"

	"google.golang.org/genai"
)

const embedModel = "text-embedding-004"

// Index holds one embedding vector per indexed file path. It is ready
// exactly when at least one vector is stored.
type Index struct {
	client *genai.Client
	mu     sync.RWMutex
	vecs   map[string][]float32
	ready  bool
}

// New wraps an already-constructed genai client. Embedding is skipped
// entirely (IsReady stays false, Search returns no results) when client
// is nil, so the hybrid engine degrades to BM25-only when no API key is
// configured.
func New(client *genai.Client) *Index {
	return &Index{client: client, vecs: map[string][]float32{}}
}

// IsReady reports whether at least one embedding vector is stored.
func (idx *Index) IsReady() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ready
}

// EmbedAll (re)computes embeddings for every given file, replacing any
// prior index state.
func (idx *Index) EmbedAll(ctx context.Context, files map[string]string) error {
	if idx.client == nil {
		return nil
	}
	fresh := map[string][]float32{}
	for path, content := range files {
		vec, err := idx.embedOne(ctx, content)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", path, err)
		}
		fresh[path] = vec
	}
	idx.mu.Lock()
	idx.vecs = fresh
	idx.ready = len(fresh) > 0
	idx.mu.Unlock()
	return nil
}

// EmbedIncremental updates changed files and drops removed ones.
func (idx *Index) EmbedIncremental(ctx context.Context, changed map[string]string, removed []string) error {
	if idx.client == nil {
		return nil
	}
	for path, content := range changed {
		vec, err := idx.embedOne(ctx, content)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", path, err)
		}
		idx.mu.Lock()
		idx.vecs[path] = vec
		idx.ready = true
		idx.mu.Unlock()
	}
	idx.mu.Lock()
	for _, path := range removed {
		delete(idx.vecs, path)
	}
	idx.ready = len(idx.vecs) > 0
	idx.mu.Unlock()
	return nil
}

func (idx *Index) embedOne(ctx context.Context, content string) ([]float32, error) {
	resp, err := idx.client.Models.EmbedContent(ctx, embedModel,
		[]*genai.Content{{Parts: []*genai.Part{{Text: content}}}},
		&genai.EmbedContentConfig{})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// Result is one scored semantic hit.
type Result struct {
	Path  string
	Score float64
}

// Search embeds the query and ranks indexed files by cosine similarity.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if idx.client == nil || !idx.IsReady() {
		return nil, nil
	}
	qvec, err := idx.embedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var results []Result
	for path, vec := range idx.vecs {
		results = append(results, Result{Path: path, Score: cosine(qvec, vec)})
	}
	sortByScoreDesc(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func sortByScoreDesc(r []Result) {
	for i := 1; i < len(r); i++ {
		for j := i; j > 0 && r[j].Score > r[j-1].Score; j-- {
			r[j], r[j-1] = r[j-1], r[j]
		}
	}
}
