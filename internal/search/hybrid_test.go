package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestWalkAllIndexesAndSearchFindsMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alpha.go", "package alpha\n\nfunc ParseConfig() error {\n\treturn nil\n}\n")
	writeFile(t, dir, "beta.go", "package beta\n\nfunc Unrelated() {}\n")

	e, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, e.WalkAll(context.Background()))

	results, err := e.Search(context.Background(), "ParseConfig", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "alpha.go", results[0].Path)
	require.NotEmpty(t, results[0].Snippets)
}

func TestSearchWithContextControlsSnippetWindow(t *testing.T) {
	dir := t.TempDir()
	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, "line filler")
	}
	lines[10] = "target marker here"
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	writeFile(t, dir, "f.go", content)

	e, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, e.WalkAll(context.Background()))

	narrow, err := e.SearchWithContext(context.Background(), "marker", 10, 1)
	require.NoError(t, err)
	require.NotEmpty(t, narrow)
	require.Len(t, narrow[0].Snippets, 1)
	narrowLines := len(splitLines(narrow[0].Snippets[0].Text))

	wide, err := e.SearchWithContext(context.Background(), "marker", 10, 5)
	require.NoError(t, err)
	wideLines := len(splitLines(wide[0].Snippets[0].Text))

	require.Greater(t, wideLines, narrowLines)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func TestWalkIncrementalDropsDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\nfunc UniqueMarkerXYZ() {}\n")

	e, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, e.WalkAll(context.Background()))

	results, err := e.Search(context.Background(), "UniqueMarkerXYZ", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))
	require.NoError(t, e.WalkIncremental(context.Background()))

	results, err = e.Search(context.Background(), "UniqueMarkerXYZ", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestBoostForDeprioritizesMocksAndTests(t *testing.T) {
	require.Equal(t, 0.5, boostFor("tests/foo_test.rs"))
	require.Equal(t, 0.4, boostFor("pkg/mock/thing.go"))
	require.Equal(t, 0.6, boostFor("README.md"))
	require.Equal(t, 1.1, boostFor("pkg/src/core.go"))
	require.Equal(t, 1.0, boostFor("pkg/scripts/throwaway.go"))
}

func TestBoostForIsCaseInsensitive(t *testing.T) {
	require.Equal(t, 0.5, boostFor("PKG/FOO_TEST.GO"))
}

func TestBoostForPrecedenceFavorsTestOverMock(t *testing.T) {
	// "test" is checked before "mock" in spec precedence order, so a path
	// matching both gets the test boost, not the mock boost.
	require.Equal(t, 0.5, boostFor("pkg/mock_test.go"))
}
