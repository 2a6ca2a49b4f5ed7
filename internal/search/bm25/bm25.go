// Package bm25 wraps a bleve/v2 in-memory index for lexical code search.
package bm25

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

type docFields struct {
	Content string `json:"content"`
}

// Index is a lexical search index keyed by root-relative file path.
type Index struct {
	idx bleve.Index
}

// New builds an empty in-memory index.
func New() (*Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create bm25 index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// Add indexes (or re-indexes) the content of path.
func (i *Index) Add(path, content string) error {
	return i.idx.Index(path, docFields{Content: content})
}

// Remove deletes path from the index, if present.
func (i *Index) Remove(path string) error {
	return i.idx.Delete(path)
}

// Result is one scored hit.
type Result struct {
	Path  string
	Score float64
}

// Search runs a lexical query and returns up to limit results by score,
// descending.
func (i *Index) Search(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, Result{Path: h.ID, Score: h.Score})
	}
	return out, nil
}

// Close releases index resources.
func (i *Index) Close() error {
	return i.idx.Close()
}
