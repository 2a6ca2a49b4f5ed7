package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

const (
	bashDefaultTimeout = 120 * time.Second
	bashMaxTimeout     = 600 * time.Second
)

type bashInput struct {
	Command   string `json:"command"`
	TimeoutMs int    `json:"timeout_ms"`
}

// BashTool spawns a shell and captures stdout/stderr.
type BashTool struct{}

func (t *BashTool) Name() string        { return "Bash" }
func (t *BashTool) Description() string { return "Execute a shell command and capture its output" }

func (t *BashTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The shell command to execute"},
			"timeout_ms": {"type": "integer", "description": "Timeout in milliseconds, default 120000, max 600000"}
		},
		"required": ["command"]
	}`)
}

func (t *BashTool) Execute(ctx context.Context, rawInput json.RawMessage, cwd string) Output {
	var in bashInput
	if err := json.Unmarshal(rawInput, &in); err != nil || in.Command == "" {
		return Err("command is required")
	}

	timeout := bashDefaultTimeout
	if in.TimeoutMs > 0 {
		timeout = min(time.Duration(in.TimeoutMs)*time.Millisecond, bashMaxTimeout)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", in.Command)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	content := combineOutput(stdout.String(), stderr.String())

	if runCtx.Err() == context.DeadlineExceeded {
		return Errf("command timed out after %s\n%s", timeout, content)
	}
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return Errf("Exit code %d\n%s", exitCode, content)
	}
	return Ok(content)
}

// combineOutput implements the spec's "stdout\nstderr:\nstderr" format,
// omitting empty halves and substituting "(no output)" if both are empty.
func combineOutput(stdout, stderr string) string {
	switch {
	case stdout == "" && stderr == "":
		return "(no output)"
	case stdout == "":
		return "stderr:\n" + stderr
	case stderr == "":
		return stdout
	default:
		return fmt.Sprintf("%s\nstderr:\n%s", stdout, stderr)
	}
}

func init() {
	Register(&BashTool{})
}
