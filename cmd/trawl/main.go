// Package main provides the trawl CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/avennor/trawl/cli"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "trawl",
		Short: "AI assistant for a web proxy's captured traffic",
		Long: `An AI-assistant layer for a web-proxy/HTTP-testing tool.

Two front doors:
- chat: an interactive conversation loop that lets an LLM inspect captured
  traffic, replay requests, manage match/replace rules and record findings
- mcp:  a Model Context Protocol bridge exposing the same tool catalogue
  over stdio to any MCP client`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "anthropic", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(setKeyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Logs go to stderr: in MCP mode
// stdout carries protocol messages only.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func chatCmd() *cobra.Command {
	var sessionID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Provider: provider, Verbose: verbose, Log: newLogger()}
			return cli.Chat(context.Background(), sessionID, dbPath, opts)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (defaults to the default session)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (defaults to ~/.trawl/trawl.db)")

	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool catalogue over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Verbose: verbose, Log: newLogger()}
			return cli.Serve(context.Background(), opts)
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tool catalogue",
		Run: func(cmd *cobra.Command, args []string) {
			cli.ListTools()
		},
	}
}

func setKeyCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "set-key [provider] [api-key]",
		Short: "Store an LLM API key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.SetKey(context.Background(), args[0], args[1], dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (defaults to ~/.trawl/trawl.db)")

	return cmd
}
