package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxtriage application
var rootCmd = &cobra.Command{
	Use:   "inboxtriage",
	Short: "Classifies job-search mail in Gmail and drafts replies",
	Long: `inboxtriage watches a Gmail inbox for job-search mail, classifies each
message with Gemini, applies a category label, and pushes important messages
to a Telegram chat where replies can be drafted and sent.

It can run as:
  - A long-running agent with Telegram and HTTP control surfaces (default)
  - A one-shot triage pass over recent mail (run)
  - An MCP (Model Context Protocol) server for AI assistants (serve)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxtriage version %s\n" .Version}}`)

	// If no subcommand is provided, run the agent by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "agent")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newAgentCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
}
