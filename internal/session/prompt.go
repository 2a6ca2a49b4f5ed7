package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/codepilot/codepilot/internal/message"
)

const maxImportDepth = 5

const basePrompt = `You are codepilot, a coding assistant operating directly in the user's
terminal. You can read and edit files, run shell commands, search the
project, and inspect git history, all subject to the user's permission
rules. Prefer small, verifiable steps. When a tool call fails, read the
error before retrying blindly.`

const bootstrapAck = "Understood. I'll use the available tools and keep responses concise. How can I help?"

// BootstrapMessages returns the conversation's opening exchange: a user
// turn describing the working directory and available tools, followed by
// a canned assistant acknowledgement. Every session starts with exactly
// these messages, and Clear truncates back to them rather than to an
// empty conversation, since the model requires strict user/assistant
// role alternation from the very first turn.
func BootstrapMessages(cwd string) []message.Message {
	contextPrompt := fmt.Sprintf(`Working directory: %s

You have access to these tools:
- Bash: execute shell commands.
- Read: read a file's contents. Always prefer this over cat or head.
- Write: write content to a file. Always prefer this over shell redirects.
- Edit: perform exact string replacements in files.
- Glob: find files by glob pattern (e.g. "**/*.go").
- Grep: search file contents with regex.
- Git: git operations (status, diff, log, branch).
- Search: hybrid BM25 + semantic search across the codebase.

Important:
- Use Read/Write/Edit instead of cat/head or shell redirects for file operations.
- Use Glob/Grep instead of find/grep commands.
- Keep responses concise.
- When executing commands, use the working directory as the base for relative paths.`, cwd)

	return []message.Message{
		message.NewUserText(contextPrompt),
		message.NewAssistantText(bootstrapAck),
	}
}

// BuildSystemPrompt assembles the system prompt for a session: base
// identity, dynamic environment info, and any project/user memory files
// found under cwd or the user's home directory.
func BuildSystemPrompt(cwd, model string, isGit bool) string {
	parts := []string{basePrompt, formatEnv(cwd, model, isGit)}
	if mem := LoadMemory(cwd); mem != "" {
		parts = append(parts, "<memory>\n"+mem+"\n</memory>")
	}
	return strings.Join(parts, "\n\n")
}

func formatEnv(cwd, model string, isGit bool) string {
	git := "No"
	if isGit {
		git = "Yes"
	}
	return fmt.Sprintf(`<env>
Working directory: %s
Is git repo: %s
Platform: %s
Date: %s
Model: %s
</env>`, cwd, git, runtime.GOOS, time.Now().Format("2006-01-02"), model)
}

// MemoryFile is one loaded CODEPILOT.md/CLAUDE.md-style memory source.
type MemoryFile struct {
	Path    string
	Content string
	Level   string // "global", "project", "local", "rules"
}

// LoadMemory concatenates every memory file found for cwd, resolving
// @path/to/file.md imports recursively. Project memory prefers
// CODEPILOT.md and falls back to CLAUDE.md for compatibility with the
// wider ecosystem's memory-file convention.
func LoadMemory(cwd string) string {
	files := LoadMemoryFiles(cwd)
	if len(files) == 0 {
		return ""
	}
	parts := make([]string, len(files))
	for i, f := range files {
		parts[i] = f.Content
	}
	return strings.Join(parts, "\n\n")
}

// LoadMemoryFiles returns every memory source in precedence order: user,
// user rules, project, project rules, project-local.
func LoadMemoryFiles(cwd string) []MemoryFile {
	var files []MemoryFile
	home, _ := os.UserHomeDir()
	seen := map[string]bool{}

	userSources := []string{
		filepath.Join(home, ".codepilot", "CODEPILOT.md"),
		filepath.Join(home, ".claude", "CLAUDE.md"),
	}
	if f := loadMemoryFile(userSources, "global", seen); f != nil {
		files = append(files, *f)
	}
	files = append(files, loadRulesDir(filepath.Join(home, ".codepilot", "rules"), "global", seen)...)

	projectSources := []string{
		filepath.Join(cwd, ".codepilot", "CODEPILOT.md"),
		filepath.Join(cwd, "CODEPILOT.md"),
		filepath.Join(cwd, ".claude", "CLAUDE.md"),
		filepath.Join(cwd, "CLAUDE.md"),
	}
	if f := loadMemoryFile(projectSources, "project", seen); f != nil {
		files = append(files, *f)
	}
	files = append(files, loadRulesDir(filepath.Join(cwd, ".codepilot", "rules"), "project", seen)...)

	localSources := []string{filepath.Join(cwd, ".codepilot", "CODEPILOT.local.md")}
	if f := loadMemoryFile(localSources, "local", seen); f != nil {
		files = append(files, *f)
	}

	return files
}

func loadMemoryFile(sources []string, level string, seen map[string]bool) *MemoryFile {
	for _, src := range sources {
		if seen[src] {
			continue
		}
		data, err := os.ReadFile(src)
		if err != nil {
			continue
		}
		content := strings.TrimSpace(string(data))
		if content == "" {
			continue
		}
		seen[src] = true
		content = resolveImports(content, filepath.Dir(src), 0, seen)
		return &MemoryFile{Path: src, Content: content, Level: level}
	}
	return nil
}

func loadRulesDir(dir, level string, seen map[string]bool) []MemoryFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var mdFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			mdFiles = append(mdFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(mdFiles)

	var out []MemoryFile
	for _, path := range mdFiles {
		if f := loadMemoryFile([]string{path}, level, seen); f != nil {
			out = append(out, *f)
		}
	}
	return out
}

var importRe = regexp.MustCompile(`(?m)^@([^\s@]+\.md)\s*$`)

// resolveImports inlines @path/to/file.md references found on their own
// line, up to maxImportDepth to guard against import cycles.
func resolveImports(content, basePath string, depth int, seen map[string]bool) string {
	if depth >= maxImportDepth {
		return content
	}
	return importRe.ReplaceAllStringFunc(content, func(match string) string {
		importPath := strings.TrimPrefix(strings.TrimSpace(match), "@")
		fullPath := filepath.Clean(filepath.Join(basePath, importPath))
		if seen[fullPath] {
			return fmt.Sprintf("<!-- skipped cycle: @%s -->", importPath)
		}
		data, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Sprintf("<!-- import not found: @%s -->", importPath)
		}
		seen[fullPath] = true
		imported := resolveImports(strings.TrimSpace(string(data)), filepath.Dir(fullPath), depth+1, seen)
		return fmt.Sprintf("<!-- imported: %s -->\n%s", importPath, imported)
	})
}
