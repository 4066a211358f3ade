package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadharvest/internal/log"
)

// NewRootCmd creates the root command for threadharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threadharvest",
		Short: "Harvest community posts and tag recurring themes",
		Long: `threadharvest collects posts from a paginated HTML content platform and
from subreddits, normalizes them into one record shape, and tags every post
with frustration and success keywords.

Each run writes a single timestamped JSON artifact keyed by source name.
Reddit sources need REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET in the
environment or in a .env file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getPersistentBool(cmd, "verbose")
}

// getLogJSONFlag retrieves the log-json flag from the command or its parent.
func getLogJSONFlag(cmd *cobra.Command) bool {
	return getPersistentBool(cmd, "log-json")
}

func getPersistentBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the process logger from the global flags and installs
// it as the slog default. Logs go to stderr so stdout stays clean.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewLogger(cmd.ErrOrStderr(), log.Options{
		Verbose: getVerboseFlag(cmd),
		JSON:    getLogJSONFlag(cmd),
	})
	slog.SetDefault(logger)
	return logger
}
