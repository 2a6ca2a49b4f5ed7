package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codepilot/codepilot/internal/vcs"
)

type gitInput struct {
	Action    string `json:"action"`
	Path      string `json:"path"`
	From      string `json:"from"`
	To        string `json:"to"`
	Revision  string `json:"revision"`
	Limit     int    `json:"limit"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Message   string `json:"message"`
	Branch    string `json:"branch"`
	Mode      string `json:"mode"`
	Staged    bool   `json:"staged"`
}

// GitTool dispatches to the go-git-backed VCS operations: status, diff,
// log, show, blame, branch listing, add/unstage, commit, push, reset,
// checkout, create_branch and delete_branch.
type GitTool struct{}

func (t *GitTool) Name() string { return "Git" }
func (t *GitTool) Description() string {
	return "Inspect and mutate the repository's version control state"
}

func (t *GitTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": [
				"status", "diff", "log", "show", "blame", "branches",
				"add", "unstage", "commit", "push", "reset", "checkout",
				"create_branch", "delete_branch"
			]},
			"path": {"type": "string"},
			"from": {"type": "string"},
			"to": {"type": "string"},
			"revision": {"type": "string"},
			"limit": {"type": "integer"},
			"start_line": {"type": "integer"},
			"end_line": {"type": "integer"},
			"message": {"type": "string"},
			"branch": {"type": "string"},
			"mode": {"type": "string", "enum": ["soft", "mixed", "hard"]},
			"staged": {"type": "boolean"}
		},
		"required": ["action"]
	}`)
}

func (t *GitTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in gitInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.Action == "" {
		return Err("action is required")
	}

	repo, err := vcs.Open(cwd)
	if err != nil {
		return Errf("%v", err)
	}

	switch in.Action {
	case "status":
		st, err := repo.Status()
		if err != nil {
			return Errf("status failed: %v", err)
		}
		if len(st) == 0 {
			return Ok("working tree clean")
		}
		var sb strings.Builder
		for _, s := range st {
			fmt.Fprintf(&sb, "%s  %s (staged=%s)\n", s.Worktree, s.Path, s.Staging)
		}
		return Ok(sb.String())

	case "diff":
		var diff string
		if in.From != "" {
			diff, err = repo.DiffRange(in.From, in.To)
		} else {
			diff, err = repo.Diff(in.Staged)
		}
		if err != nil {
			return Errf("diff failed: %v", err)
		}
		if diff == "" {
			return Ok("(no changes)")
		}
		return Ok(diff)

	case "log":
		entries, err := repo.Log(in.Limit)
		if err != nil {
			return Errf("log failed: %v", err)
		}
		var sb strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&sb, "%s %s %s %s\n", e.Hash[:8], e.When.Format("2006-01-02"), e.Author, strings.TrimSpace(e.Message))
		}
		return Ok(sb.String())

	case "show":
		if in.Revision == "" {
			return Err("revision is required for show")
		}
		patch, err := repo.Show(in.Revision)
		if err != nil {
			return Errf("show failed: %v", err)
		}
		return Ok(patch)

	case "blame":
		if in.Path == "" {
			return Err("path is required for blame")
		}
		lines, err := repo.Blame(in.Path, in.StartLine, in.EndLine)
		if err != nil {
			return Errf("blame failed: %v", err)
		}
		var sb strings.Builder
		for _, l := range lines {
			fmt.Fprintf(&sb, "%d\t%s\t%s\t%s\n", l.LineNo, l.Hash[:8], l.Author, l.Text)
		}
		return Ok(sb.String())

	case "branches":
		branches, err := repo.Branches()
		if err != nil {
			return Errf("branches failed: %v", err)
		}
		var sb strings.Builder
		for _, b := range branches {
			marker := "  "
			if b.Current {
				marker = "* "
			}
			fmt.Fprintf(&sb, "%s%s\n", marker, b.Name)
		}
		return Ok(sb.String())

	case "add":
		var paths []string
		if in.Path != "" {
			paths = []string{in.Path}
		}
		if err := repo.Add(paths...); err != nil {
			return Errf("add failed: %v", err)
		}
		return Ok("staged")

	case "unstage":
		if in.Path == "" {
			return Err("path is required for unstage")
		}
		if err := repo.Unstage(in.Path); err != nil {
			return Errf("unstage failed: %v", err)
		}
		return Ok("unstaged")

	case "commit":
		if in.Message == "" {
			return Err("message is required for commit")
		}
		hash, err := repo.Commit(in.Message, "codepilot", "codepilot@localhost")
		if err != nil {
			return Errf("commit failed: %v", err)
		}
		return Ok("committed " + hash)

	case "push":
		if err := repo.Push(); err != nil {
			return Errf("push failed: %v", err)
		}
		return Ok("pushed")

	case "reset":
		if in.Revision == "" {
			return Err("revision is required for reset")
		}
		mode := parseResetMode(in.Mode)
		if err := repo.Reset(in.Revision, mode); err != nil {
			return Errf("reset failed: %v", err)
		}
		return Ok("reset to " + in.Revision)

	case "checkout":
		if in.Branch == "" {
			return Err("branch is required for checkout")
		}
		if err := repo.Checkout(in.Branch, false); err != nil {
			return Errf("checkout failed: %v", err)
		}
		return Ok("checked out " + in.Branch)

	case "create_branch":
		if in.Branch == "" {
			return Err("branch is required for create_branch")
		}
		if err := repo.CreateBranch(in.Branch); err != nil {
			return Errf("create_branch failed: %v", err)
		}
		return Ok("created branch " + in.Branch)

	case "delete_branch":
		if in.Branch == "" {
			return Err("branch is required for delete_branch")
		}
		if err := repo.DeleteBranch(in.Branch); err != nil {
			return Errf("delete_branch failed: %v", err)
		}
		return Ok("deleted branch " + in.Branch)

	default:
		return Errf("unknown action: %s", in.Action)
	}
}

func parseResetMode(mode string) vcs.ResetMode {
	switch mode {
	case "soft":
		return vcs.ResetSoft
	case "hard":
		return vcs.ResetHard
	default:
		return vcs.ResetMixed
	}
}

func init() {
	Register(&GitTool{})
}
