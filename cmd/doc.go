// Package cmd implements the command-line interface for inboxtriage.
//
// This package provides the following commands:
//   - agent: Run the long-running triage agent with Telegram and HTTP control surfaces
//   - run: Run a single triage pass over recent mail and exit
//   - serve: Start the MCP server to provide tools for AI assistants
//   - auth: Run the one-time Google OAuth flow
//
// The agent command is the default command when no subcommand is specified.
package cmd
