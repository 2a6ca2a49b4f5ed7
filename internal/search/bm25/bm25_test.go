package bm25

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndSearchRanksByRelevance(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Add("a.go", "func helper parses input tokens"))
	require.NoError(t, idx.Add("b.go", "unrelated package doing other work"))

	results, err := idx.Search("parses tokens", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "a.go", results[0].Path)
}

func TestRemoveDropsDocument(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Add("a.go", "unique marker zzqqxx"))
	require.NoError(t, idx.Remove("a.go"))

	results, err := idx.Search("zzqqxx", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchNoMatches(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Add("a.go", "hello world"))
	results, err := idx.Search("nonexistentterm", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}
