package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalkSkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "x.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))

	entries, err := Walk(dir)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	require.Contains(t, paths, "main.go")
	require.NotContains(t, paths, "node_modules/x.js")
}

func TestWalkHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nsecrets/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("log"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "secrets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets", "key.pem"), []byte("k"), 0o644))

	entries, err := Walk(dir)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	require.Contains(t, paths, "keep.txt")
	require.NotContains(t, paths, "app.log")
	require.NotContains(t, paths, "secrets/key.pem")
}

func TestGitignoreNegationReincludes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n!important.log\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.log"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "important.log"), []byte("i"), 0o644))

	entries, err := Walk(dir)
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelPath)
	}
	require.Contains(t, paths, "important.log")
	require.NotContains(t, paths, "a.log")
}

func TestIsIndexableRejectsOversizedFile(t *testing.T) {
	require.False(t, IsIndexable("whatever.go", maxIndexFileSize+1))
}

func TestIsIndexableRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))
	require.False(t, IsIndexable(path, 2))
}

func TestIsIndexableRejectsBinaryContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\x00binary"), 0o644))
	require.False(t, IsIndexable(path, 20))
}

func TestIsIndexableAcceptsKnownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))
	require.True(t, IsIndexable(path, 12))
}

func TestIsIndexableAcceptsExtensionlessAllowlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Dockerfile")
	require.NoError(t, os.WriteFile(path, []byte("FROM scratch"), 0o644))
	require.True(t, IsIndexable(path, 12))
}
