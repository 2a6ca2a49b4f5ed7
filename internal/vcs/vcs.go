// Package vcs wraps go-git/v5 to provide the Git tool's backend: status,
// diff, log, show, blame, branch listing, and the staging/commit/reset/
// checkout mutation operations.
package vcs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Repo wraps an open git repository rooted at a working directory.
type Repo struct {
	repo *git.Repository
}

// Open opens the git repository containing dir, searching parent
// directories the way `git` itself does.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	return &Repo{repo: r}, nil
}

// FileStatus is one entry of Status's output.
type FileStatus struct {
	Path     string
	Staging  string // "added", "modified", "deleted", "untracked", "unmodified"
	Worktree string
}

// Status reports the working tree and index state of every changed path.
func (r *Repo) Status() ([]FileStatus, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, err
	}
	var out []FileStatus
	for path, s := range st {
		out = append(out, FileStatus{
			Path:     path,
			Staging:  codeToString(s.Staging),
			Worktree: codeToString(s.Worktree),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func codeToString(c git.StatusCode) string {
	switch c {
	case git.Unmodified:
		return "unmodified"
	case git.Untracked:
		return "untracked"
	case git.Modified:
		return "modified"
	case git.Added:
		return "added"
	case git.Deleted:
		return "deleted"
	case git.Renamed:
		return "renamed"
	case git.Copied:
		return "copied"
	case git.UpdatedButUnmerged:
		return "conflict"
	default:
		return "unknown"
	}
}

// Diff returns a unified diff built with the myers algorithm over each
// changed path's old and new content. staged compares HEAD against the
// index (via the index's blob content); otherwise HEAD against the
// worktree files on disk.
func (r *Repo) Diff(staged bool) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return "", err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", err
	}
	st, err := wt.Status()
	if err != nil {
		return "", err
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for path, s := range st {
		code := s.Worktree
		if staged {
			code = s.Staging
		}
		if code == git.Unmodified || (!staged && code == git.Untracked) {
			continue
		}

		oldContent := blobContent(headTree, path)
		var newContent string
		if staged {
			newContent = indexBlobContent(r.repo, idx, path)
		} else {
			newContent = workingFileContent(wt.Filesystem.Root(), path)
		}

		edits := myers.ComputeEdits(span.URIFromPath(path), oldContent, newContent)
		unified := gotextdiff.ToUnified(path, path, oldContent, edits)
		fmt.Fprint(&buf, unified)
	}
	return buf.String(), nil
}

// blobContent returns the content of path in tree, or "" if the path does
// not exist there (a newly added file has no HEAD blob).
func blobContent(tree *object.Tree, path string) string {
	f, err := tree.File(path)
	if err != nil {
		return ""
	}
	content, err := f.Contents()
	if err != nil {
		return ""
	}
	return content
}

func indexBlobContent(repo *git.Repository, idx *index.Index, path string) string {
	entry, err := idx.Entry(path)
	if err != nil {
		return ""
	}
	blob, err := repo.BlobObject(entry.Hash)
	if err != nil {
		return ""
	}
	reader, err := blob.Reader()
	if err != nil {
		return ""
	}
	defer reader.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return ""
	}
	return buf.String()
}

func workingFileContent(root, relPath string) string {
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return ""
	}
	return string(data)
}

// DiffRange diffs the tree at fromRev against the tree at toRev (or HEAD's
// committed tree, when toRev is empty; the worktree is never read).
func (r *Repo) DiffRange(fromRev, toRev string) (string, error) {
	fromHash, err := r.repo.ResolveRevision(plumbing.Revision(fromRev))
	if err != nil {
		return "", fmt.Errorf("unknown revision %q: %w", fromRev, err)
	}
	fromCommit, err := r.repo.CommitObject(*fromHash)
	if err != nil {
		return "", err
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return "", err
	}

	var toTree *object.Tree
	if toRev != "" {
		toHash, err := r.repo.ResolveRevision(plumbing.Revision(toRev))
		if err != nil {
			return "", fmt.Errorf("unknown revision %q: %w", toRev, err)
		}
		toCommit, err := r.repo.CommitObject(*toHash)
		if err != nil {
			return "", err
		}
		toTree, err = toCommit.Tree()
		if err != nil {
			return "", err
		}
	} else {
		head, err := r.repo.Head()
		if err != nil {
			return "", err
		}
		headCommit, err := r.repo.CommitObject(head.Hash())
		if err != nil {
			return "", err
		}
		toTree, err = headCommit.Tree()
		if err != nil {
			return "", err
		}
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return "", err
	}
	patch, err := changes.Patch()
	if err != nil {
		return "", err
	}
	return patch.String(), nil
}

// LogEntry is one commit returned by Log.
type LogEntry struct {
	Hash    string
	Author  string
	When    time.Time
	Message string
}

// Log returns up to limit commits reachable from HEAD, most recent first.
func (r *Repo) Log(limit int) ([]LogEntry, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []LogEntry
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(out) >= limit {
			return fmt.Errorf("stop")
		}
		out = append(out, LogEntry{
			Hash:    c.Hash.String(),
			Author:  c.Author.Name,
			When:    c.Author.When,
			Message: c.Message,
		})
		return nil
	})
	if err != nil && err.Error() != "stop" {
		return nil, err
	}
	return out, nil
}

// Show returns the full diff patch introduced by a single commit.
func (r *Repo) Show(rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("unknown revision %q: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return "", err
	}
	tree, err := commit.Tree()
	if err != nil {
		return "", err
	}

	var parentTree *object.Tree
	parent, err := commit.Parent(0)
	if err == nil {
		parentTree, err = parent.Tree()
		if err != nil {
			return "", err
		}
	}

	// A root commit has no parent; object.DiffTree treats a nil tree as
	// empty, so this still produces a patch (every file shows as added)
	// instead of dereferencing a nil *Tree.
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return "", err
	}
	patch, err := changes.Patch()
	if err != nil {
		return "", err
	}
	return patch.String(), nil
}

// BlameLine is one attributed line of a blamed file.
type BlameLine struct {
	LineNo int
	Hash   string
	Author string
	Text   string
}

// Blame annotates each line of path with the commit that last touched it.
// When startLine/endLine are both > 0, only that inclusive range is
// returned (1-based).
func (r *Repo) Blame(path string, startLine, endLine int) ([]BlameLine, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	result, err := git.Blame(commit, path)
	if err != nil {
		return nil, err
	}

	var out []BlameLine
	for i, line := range result.Lines {
		lineNo := i + 1
		if startLine > 0 && endLine > 0 && (lineNo < startLine || lineNo > endLine) {
			continue
		}
		out = append(out, BlameLine{
			LineNo: lineNo,
			Hash:   line.Hash.String(),
			Author: line.Author,
			Text:   line.Text,
		})
	}
	return out, nil
}

// Branch is one entry of Branches.
type Branch struct {
	Name    string
	Current bool
}

// Branches lists local branches, marking the currently checked-out one.
func (r *Repo) Branches() ([]Branch, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, err
	}
	refs, err := r.repo.Branches()
	if err != nil {
		return nil, err
	}
	var out []Branch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		out = append(out, Branch{
			Name:    ref.Name().Short(),
			Current: ref.Name() == head.Name(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Add stages paths (or all changes, when paths is empty).
func (r *Repo) Add(paths ...string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		_, err = wt.Add(".")
		return err
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// Unstage removes paths from the index without touching the worktree.
func (r *Repo) Unstage(paths ...string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := wt.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

// Commit creates a new commit from the current index.
func (r *Repo) Commit(message, authorName, authorEmail string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", err
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()},
	})
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// Push pushes to the origin remote with go-git's default push refspec
// (all local branches), not only the current branch.
func (r *Repo) Push() error {
	err := r.repo.Push(&git.PushOptions{})
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	return err
}

// ResetMode selects how Reset treats the index and worktree.
type ResetMode int

const (
	ResetSoft ResetMode = iota
	ResetMixed
	ResetHard
)

// Reset moves HEAD (and optionally the index/worktree) to rev.
func (r *Repo) Reset(rev string, mode ResetMode) error {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return fmt.Errorf("unknown revision %q: %w", rev, err)
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	var gm git.ResetMode
	switch mode {
	case ResetSoft:
		gm = git.SoftReset
	case ResetHard:
		gm = git.HardReset
	default:
		gm = git.MixedReset
	}
	return wt.Reset(&git.ResetOptions{Commit: *hash, Mode: gm})
}

// Checkout switches the worktree to branch, creating it first if create.
func (r *Repo) Checkout(branch string, create bool) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	})
}

// CreateBranch creates a new local branch pointed at HEAD without
// switching to it.
func (r *Repo) CreateBranch(name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return err
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	return r.repo.Storer.SetReference(ref)
}

// DeleteBranch removes a local branch.
func (r *Repo) DeleteBranch(name string) error {
	return r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name))
}
