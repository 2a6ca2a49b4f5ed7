// Package walk implements the file walker shared by the Glob/Grep tools and
// the hybrid search index: it honors project .gitignore (global gitignore
// is intentionally off) and skips a fixed ignored-directory blacklist. The
// walker itself keeps no state between walks; the per-file modified-time
// tuples used for incremental re-indexing are kept by the search Engine.
package walk

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// IgnoredDirs is skipped unconditionally during any walk.
var IgnoredDirs = map[string]bool{
	"node_modules": true, "target": true, ".git": true, "build": true,
	"dist": true, "venv": true, ".venv": true, "__pycache__": true,
	"vendor": true, ".idea": true, ".vscode": true, "out": true,
	"bin": true, "obj": true,
}

// textExtensions is the allow-list of extensions the search walker indexes.
// Glob/Grep do not filter by extension — they walk everything not ignored.
var textExtensions = map[string]bool{
	".go": true, ".rs": true, ".py": true, ".js": true, ".jsx": true,
	".ts": true, ".tsx": true, ".java": true, ".c": true, ".h": true,
	".cpp": true, ".hpp": true, ".cc": true, ".rb": true, ".php": true,
	".cs": true, ".swift": true, ".kt": true, ".scala": true, ".sh": true,
	".md": true, ".txt": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".xml": true, ".html": true, ".css": true, ".scss": true,
	".sql": true, ".proto": true, ".graphql": true, ".lua": true,
	".vue": true, ".svelte": true, ".env": true, ".cfg": true, ".ini": true,
}

// extensionlessAllow is the small set of unextended filenames the search
// walker indexes regardless of extension.
var extensionlessAllow = map[string]bool{
	"Dockerfile": true, "Makefile": true, "Rakefile": true,
	"Gemfile": true, "Procfile": true, "README": true,
}

const maxIndexFileSize = 1 << 20 // 1 MiB

// Matcher evaluates project .gitignore patterns against root-relative paths.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	glob    string
	dirOnly bool
	negate  bool
	anchored bool
}

// LoadGitignore parses root/.gitignore. A missing file yields an empty
// (always-pass) Matcher.
func LoadGitignore(root string) *Matcher {
	m := &Matcher{}
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return m
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " ")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := pattern{}
		if strings.HasPrefix(line, "!") {
			p.negate = true
			line = line[1:]
		}
		if strings.HasPrefix(line, "/") {
			p.anchored = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			p.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		p.glob = line
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Match reports whether relPath (slash-separated, root-relative) should be
// ignored. Later patterns override earlier ones, matching gitignore
// semantics; dirOnly patterns only apply when isDir is true.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	ignored := false
	base := filepath.Base(relPath)
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		var matched bool
		if p.anchored {
			matched, _ = filepath.Match(p.glob, relPath)
		} else {
			matched, _ = filepath.Match(p.glob, base)
			if !matched {
				matched, _ = filepath.Match(p.glob, relPath)
			}
		}
		if matched {
			ignored = !p.negate
		}
	}
	return ignored
}

// Entry is one walked file, for Glob/Grep consumers that just need a list.
type Entry struct {
	RelPath string
	AbsPath string
	ModTime time.Time
}

// Walk lists every non-ignored file under root, without extension
// filtering. Used by the Glob and Grep tools.
func Walk(root string) ([]Entry, error) {
	matcher := LoadGitignore(root)
	var entries []Entry

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if IgnoredDirs[info.Name()] || matcher.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Match(rel, false) {
			return nil
		}
		entries = append(entries, Entry{RelPath: rel, AbsPath: path, ModTime: info.ModTime()})
		return nil
	})
	return entries, err
}

// IsIndexable reports whether a file should be included in the search
// index: extension allow-listed (or a recognized extensionless filename),
// under the size cap, and not binary (first 8 KB has no NUL byte).
func IsIndexable(absPath string, size int64) bool {
	if size > maxIndexFileSize {
		return false
	}
	name := filepath.Base(absPath)
	ext := filepath.Ext(name)
	if !textExtensions[ext] && !extensionlessAllow[name] {
		return false
	}
	return !looksBinary(absPath)
}

func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	buf := make([]byte, 8192)
	n, _ := f.Read(buf)
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
