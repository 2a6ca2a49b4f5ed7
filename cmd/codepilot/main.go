// Command codepilot is an interactive terminal coding assistant: it drives
// a remote model through a tool-calling agent loop under a layered
// permission policy, with bash, file, git, and hybrid code search tools.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/codepilot/codepilot/internal/apiclient"
	"github.com/codepilot/codepilot/internal/auth"
	"github.com/codepilot/codepilot/internal/log"
	"github.com/codepilot/codepilot/internal/tool"
)

var version = "0.1.0"

func init() {
	_ = godotenv.Load()
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var loginFlag bool

func init() {
	rootCmd.Flags().BoolVar(&loginFlag, "login", false, "force re-authentication via OAuth before starting")
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "codepilot [message]",
	Short: "codepilot - an AI coding assistant for the terminal",
	Long: `codepilot drives a remote model through an agent loop with bash, file,
git, and code-search tools, gated by a layered permission policy.

Non-interactive mode:
  codepilot "your message"   Send a single message and exit
  echo "message" | codepilot Send a message via stdin`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, model, err := resolveClient(cmd.Context())
		if err != nil {
			return err
		}

		if msg := inputMessage(args); msg != "" {
			return runOnce(cmd.Context(), client, model, msg)
		}
		return runREPL(cmd.Context(), client, model)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codepilot version %s\n", version)
	},
}

func resolveClient(ctx context.Context) (*apiclient.Client, string, error) {
	if loginFlag {
		if err := interactiveLogin(ctx); err != nil {
			return nil, "", err
		}
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return apiclient.New(key, apiclient.AuthAPIKey), defaultModel(), nil
	}

	creds, err := auth.LoadCredentials()
	if err != nil {
		return nil, "", err
	}
	if creds == nil {
		if err := interactiveLogin(ctx); err != nil {
			return nil, "", err
		}
		creds, err = auth.LoadCredentials()
		if err != nil || creds == nil {
			return nil, "", fmt.Errorf("no credentials available; run with --login or set ANTHROPIC_API_KEY")
		}
	}

	mode := apiclient.AuthAPIKey
	if creds.IsOAuth {
		mode = apiclient.AuthOAuthBearer
	}
	return apiclient.New(creds.Token, mode), defaultModel(), nil
}

func defaultModel() string {
	if m := os.Getenv("CODEPILOT_MODEL"); m != "" {
		return m
	}
	return "claude-sonnet-4-5-20250929"
}

func interactiveLogin(ctx context.Context) error {
	flow, err := auth.NewFlow()
	if err != nil {
		return err
	}
	fmt.Println("Open this URL to authorize codepilot:")
	fmt.Println(flow.AuthURL())
	fmt.Print("Paste the authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	parts := strings.SplitN(strings.TrimSpace(line), "#", 2)
	code := parts[0]
	state := ""
	if len(parts) == 2 {
		state = parts[1]
	}

	tok, err := flow.Exchange(ctx, code, state)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return auth.SaveCredentials(auth.Credentials{Token: tok.AccessToken, IsOAuth: true})
}

func inputMessage(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		data, err := io.ReadAll(os.Stdin)
		if err == nil && len(data) > 0 {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

func runOnce(ctx context.Context, client *apiclient.Client, model, msg string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	loop := newLoop(client, model, cwd)
	if err := loop.SendMessage(ctx, msg); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func newLoopRegistry() *tool.Registry {
	return tool.DefaultRegistry
}
