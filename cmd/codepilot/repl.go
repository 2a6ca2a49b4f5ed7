package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/codepilot/codepilot/internal/apiclient"
	"github.com/codepilot/codepilot/internal/event"
	"github.com/codepilot/codepilot/internal/session"
	"github.com/codepilot/codepilot/internal/vcs"
)

// thinkConfig tracks the /think slash command's extended-thinking setting.
// "off" sends no thinking budget; "adaptive" lets the model choose; a
// positive budget pins an explicit token allowance (minimum 1024).
type thinkConfig struct {
	mode   string // "off", "adaptive", "fixed"
	budget int
}

func newLoop(client *apiclient.Client, model, cwd string) *session.Loop {
	loop := session.New(client, model, cwd, newLoopRegistry(), consoleSink{})
	_, err := vcs.Open(cwd)
	loop.SystemPrompt = session.BuildSystemPrompt(cwd, model, err == nil)
	return loop
}

// consoleSink prints agent-loop events directly to stdout, used by both
// the non-interactive single-shot path and the REPL.
type consoleSink struct{ event.NoopSink }

func (consoleSink) OnText(chunk string) { fmt.Print(chunk) }
func (consoleSink) OnError(msg string)  { fmt.Fprintf(os.Stderr, "\nerror: %s\n", msg) }
func (consoleSink) OnToolUseStart(name, id string, input json.RawMessage) {
	fmt.Printf("\n[%s]\n", name)
}
func (consoleSink) OnToolResult(name, output string, isError bool) {
	if isError {
		fmt.Printf("  -> error: %s\n", truncateForDisplay(output))
	}
}

func truncateForDisplay(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// consolePrompter asks the user on stdin/stdout whether to allow an
// unresolved tool call. Used only in interactive mode; non-interactive runs
// have no prompter and fall back to denial.
type consolePrompter struct{}

func (consolePrompter) Prompt(req *event.PermissionRequest) bool {
	fmt.Printf("\nAllow %s (%s)? [y/N] ", req.ToolName, req.Description)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	allowed := line == "y" || line == "yes"
	req.Reply <- allowed
	return allowed
}

func runREPL(ctx context.Context, client *apiclient.Client, model string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	loop := newLoop(client, model, cwd)
	loop.Prompter = consolePrompter{}

	think := thinkConfig{mode: "adaptive"}

	fmt.Println("codepilot - type /help for commands, Ctrl-D to quit")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := handleSlash(loop, &think, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if done {
				return nil
			}
			continue
		}

		if err := loop.SendMessage(ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
		}
		fmt.Println()
	}
}

// handleSlash interprets one REPL slash command. The second return value
// is true when the REPL should exit.
func handleSlash(loop *session.Loop, think *thinkConfig, line string) (bool, error) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "/help":
		printREPLHelp()
	case "/quit", "/q", "/exit":
		return true, nil
	case "/clear":
		loop.Clear()
		fmt.Println("conversation cleared")
	case "/model":
		if len(args) == 0 {
			fmt.Printf("current model: %s\n", loop.Model)
		} else {
			loop.Model = args[0]
			fmt.Printf("model set to %s\n", loop.Model)
		}
	case "/think":
		if len(args) == 0 {
			fmt.Printf("thinking: %s\n", describeThink(*think))
			return false, nil
		}
		if err := applyThink(think, args[0]); err != nil {
			return false, err
		}
		fmt.Printf("thinking: %s\n", describeThink(*think))
	case "/rec":
		fmt.Println("voice recording is not available in this build")
	default:
		return false, fmt.Errorf("unknown command: %s (try /help)", cmd)
	}
	return false, nil
}

func describeThink(t thinkConfig) string {
	switch t.mode {
	case "off":
		return "off"
	case "fixed":
		return fmt.Sprintf("fixed budget %d tokens", t.budget)
	default:
		return "adaptive"
	}
}

func applyThink(t *thinkConfig, arg string) error {
	switch arg {
	case "off":
		t.mode, t.budget = "off", 0
		return nil
	case "adaptive":
		t.mode, t.budget = "adaptive", 0
		return nil
	default:
		budget, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("usage: /think off|adaptive|<budget>=1024")
		}
		if budget < 1024 {
			return fmt.Errorf("thinking budget must be at least 1024 tokens")
		}
		t.mode, t.budget = "fixed", budget
		return nil
	}
}

func printREPLHelp() {
	fmt.Print(`Commands:
  /help              show this help
  /clear             clear the conversation
  /model [name]      show or switch the active model
  /think off|adaptive|<budget>  configure extended thinking
  /rec               voice input (not available)
  /quit, /q, /exit   exit codepilot
`)
}
