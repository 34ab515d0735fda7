// Package main provides the entry point for the ragprompt CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gorewood/ragprompt/internal/config"
	"github.com/gorewood/ragprompt/internal/envfile"
	"github.com/gorewood/ragprompt/internal/output"
)

// Build info set via ldflags at build time by goreleaser.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	return flagValue(cmd, "json") == "true"
}

// flagValue looks up a flag on cmd, falling back to the root's persistent flags.
func flagValue(cmd *cobra.Command, name string) string {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup(name)
	}
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the ragprompt CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragprompt",
		Short: "Resolve retrieval-augmented prompts from a template service",
		Long: `ragprompt - Build retrieval-augmented prompts from a remotely managed template.

ragprompt fetches the current prompt template from the template service,
substitutes retrieved context and the user's query, and falls back to a
built-in template whenever the service cannot be used:
  - resolve  builds the prompt
  - ask      builds the prompt and sends it to an LLM
  - template inspects and administers the remote template
  - serve    runs the template service itself
  - mcp      exposes prompt resolution to MCP-capable agents

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'ragprompt --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	// Environment variables always take precedence over file values.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		loadEnvFiles()
		return nil
	}

	flags := cmd.PersistentFlags()
	flags.Bool("json", false, "Output in JSON format")
	flags.String("config", "", "Config file (default: "+configHint()+")")
	flags.String("api-url", "", "Template service base URL (overrides config)")
	flags.String("token", "", "Bearer token for the template service (overrides config)")
	flags.String("color", "auto", "Color output: auto, always, never")
	flags.BoolP("verbose", "v", false, "Log debug details to stderr")

	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

func configHint() string {
	if path := config.DefaultPath(); path != "" {
		return path
	}
	return "config.yaml in the ragprompt config directory"
}

// loadEnvFiles loads env files in priority order. First match for each
// variable wins; environment variables already set always take precedence.
//
// Resolution order:
//  1. $CWD/.env.local
//  2. $CWD/.env
//  3. ~/.config/ragprompt/env
func loadEnvFiles() {
	paths := []string{".env.local", ".env"}
	if dir := config.Dir(); dir != "" {
		paths = append(paths, filepath.Join(dir, "env"))
	}
	_, _ = envfile.LoadAll(paths...)
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "agent", Title: "Agent Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	addGroupedCommand(cmd, newResolveCmd(), "core")
	addGroupedCommand(cmd, newAskCmd(), "core")

	addGroupedCommand(cmd, newTemplateCmd(), "admin")
	addGroupedCommand(cmd, newServeCmd(), "admin")

	addGroupedCommand(cmd, newMCPCmd(), "agent")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
