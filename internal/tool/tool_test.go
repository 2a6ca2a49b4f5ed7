package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestReadToolRendersNumberedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0o644))

	out := (&ReadTool{}).Execute(context.Background(), raw(t, readInput{FilePath: "f.txt"}), dir)
	require.False(t, out.IsError)
	require.Equal(t, "1\ta\n2\tb\n3\tc\n", out.Content)
}

func TestReadToolRespectsOffsetAndLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o644))

	out := (&ReadTool{}).Execute(context.Background(), raw(t, readInput{FilePath: "f.txt", Offset: 2, Limit: 1}), dir)
	require.False(t, out.IsError)
	require.Equal(t, "2\tb\n", out.Content)
}

func TestReadToolMissingFileIsError(t *testing.T) {
	out := (&ReadTool{}).Execute(context.Background(), raw(t, readInput{FilePath: "nope.txt"}), t.TempDir())
	require.True(t, out.IsError)
}

func TestWriteToolCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	out := (&WriteTool{}).Execute(context.Background(), raw(t, writeInput{FilePath: "nested/f.txt", Content: "hi"}), dir)
	require.False(t, out.IsError)

	data, err := os.ReadFile(filepath.Join(dir, "nested", "f.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))
}

func TestEditToolRequiresUniqueMatchWithoutReplaceAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo foo"), 0o644))

	out := (&EditTool{}).Execute(context.Background(), raw(t, editInput{FilePath: "f.txt", OldString: "foo", NewString: "bar"}), dir)
	require.True(t, out.IsError)
	require.Contains(t, out.Content, "not unique")
}

func TestEditToolReplaceAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo foo"), 0o644))

	out := (&EditTool{}).Execute(context.Background(), raw(t, editInput{FilePath: "f.txt", OldString: "foo", NewString: "bar", ReplaceAll: true}), dir)
	require.False(t, out.IsError)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "bar bar", string(data))
}

func TestEditToolRejectsIdenticalStrings(t *testing.T) {
	out := (&EditTool{}).Execute(context.Background(), raw(t, editInput{FilePath: "f.txt", OldString: "same", NewString: "same"}), t.TempDir())
	require.True(t, out.IsError)
}

func TestEditToolNotFoundIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	out := (&EditTool{}).Execute(context.Background(), raw(t, editInput{FilePath: "f.txt", OldString: "absent", NewString: "x"}), dir)
	require.True(t, out.IsError)
	require.Contains(t, out.Content, "not found")
}

func TestListToolSkipsDotfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	out := (&ListTool{}).Execute(context.Background(), raw(t, listInput{}), dir)
	require.False(t, out.IsError)
	require.Contains(t, out.Content, "visible.txt")
	require.Contains(t, out.Content, "sub/")
	require.NotContains(t, out.Content, ".hidden")
}

func TestListToolEmptyDir(t *testing.T) {
	out := (&ListTool{}).Execute(context.Background(), raw(t, listInput{}), t.TempDir())
	require.Equal(t, "(empty directory)", out.Content)
}

func TestGlobToolMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.go"), []byte("package pkg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))

	out := (&GlobTool{}).Execute(context.Background(), raw(t, globInput{Pattern: "**/*.go"}), dir)
	require.False(t, out.IsError)
	require.Contains(t, out.Content, "pkg/a.go")
	require.NotContains(t, out.Content, "README.md")
}

func TestGlobToolNoMatches(t *testing.T) {
	out := (&GlobTool{}).Execute(context.Background(), raw(t, globInput{Pattern: "**/*.nonexistent"}), t.TempDir())
	require.Equal(t, "(no matches)", out.Content)
}

func TestGrepToolCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("HELLO world\n"), 0o644))

	out := (&GrepTool{}).Execute(context.Background(), raw(t, grepInput{Pattern: "hello", IgnoreCase: true, OutputMode: "content"}), dir)
	require.False(t, out.IsError)
	require.Contains(t, out.Content, "HELLO world")
}

func TestGrepToolCaseSensitiveMisses(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("HELLO world\n"), 0o644))

	out := (&GrepTool{}).Execute(context.Background(), raw(t, grepInput{Pattern: "hello", OutputMode: "content"}), dir)
	require.Equal(t, "(no matches)", out.Content)
}

func TestGrepToolCountMode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("foo\nfoo\nbar\n"), 0o644))

	out := (&GrepTool{}).Execute(context.Background(), raw(t, grepInput{Pattern: "foo", OutputMode: "count"}), dir)
	require.Equal(t, "a.go:2", out.Content)
}

func TestGrepToolInvalidPattern(t *testing.T) {
	out := (&GrepTool{}).Execute(context.Background(), raw(t, grepInput{Pattern: "("}), t.TempDir())
	require.True(t, out.IsError)
}

func TestBashToolCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires bash")
	}
	out := (&BashTool{}).Execute(context.Background(), raw(t, bashInput{Command: "echo hi"}), t.TempDir())
	require.False(t, out.IsError)
	require.Equal(t, "hi\n", out.Content)
}

func TestBashToolReportsNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires bash")
	}
	out := (&BashTool{}).Execute(context.Background(), raw(t, bashInput{Command: "exit 3"}), t.TempDir())
	require.True(t, out.IsError)
	require.Contains(t, out.Content, "Exit code 3")
}

func TestBashToolTimesOut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires bash")
	}
	out := (&BashTool{}).Execute(context.Background(), raw(t, bashInput{Command: "sleep 5", TimeoutMs: int(50 * time.Millisecond / time.Millisecond)}), t.TempDir())
	require.True(t, out.IsError)
	require.Contains(t, out.Content, "timed out")
}

func TestRegistryRegisterGetExecuteCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ListTool{})

	tool, ok := r.Get("LIST")
	require.True(t, ok)
	require.Equal(t, "List", tool.Name())

	out := r.Execute(context.Background(), "list", raw(t, listInput{}), t.TempDir())
	require.False(t, out.IsError)
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	out := r.Execute(context.Background(), "Nope", nil, t.TempDir())
	require.True(t, out.IsError)
}

func TestToInvocationBash(t *testing.T) {
	inv, ok := ToInvocation("Bash", raw(t, map[string]string{"command": "ls -la"}), "/proj")
	require.True(t, ok)
	require.Equal(t, "ls -la", inv.MatchTarget)
}

func TestToInvocationReadResolvesRelativePath(t *testing.T) {
	inv, ok := ToInvocation("Read", raw(t, map[string]string{"file_path": "a.txt"}), "/proj")
	require.True(t, ok)
	require.Equal(t, filepath.Join("/proj", "a.txt"), inv.MatchTarget)
}

func TestToInvocationUnknownToolIsUnclassifiable(t *testing.T) {
	_, ok := ToInvocation("Fetch", raw(t, map[string]string{"url": "http://example.com"}), "/proj")
	require.False(t, ok)
}

func TestToInvocationMissingRequiredFieldIsUnclassifiable(t *testing.T) {
	_, ok := ToInvocation("Bash", raw(t, map[string]string{}), "/proj")
	require.False(t, ok)
}
