package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadharvest/internal/config"
	"github.com/nao1215/threadharvest/internal/database"
	"github.com/nao1215/threadharvest/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command and its subcommands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs",
		Long: `History lists the runs recorded in the history database, newest first.

Every run stores its artifact, the outcome of each source and a SHA3-256
digest of the artifact. 'history show' verifies the digest before printing.

Examples:
  # List the last 20 runs
  threadharvest history

  # List every run
  threadharvest history --limit 0

  # Print the artifact of run 7
  threadharvest history show 7

  # Remove run 7
  threadharvest history delete 7`,
		Args: cobra.NoArgs,
		RunE: runHistoryListCmd,
	}

	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryDeleteCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the artifact and sources of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a run from the history",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDeleteCmd,
	}
}

// openHistory opens the existing history database.
func openHistory(cmd *cobra.Command) (*database.RunDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history (no run recorded yet?): %w", err)
	}
	return db, nil
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q: must be a positive integer", arg)
	}
	return id, nil
}

func runHistoryListCmd(cmd *cobra.Command, _ []string) error {
	setupLogger(cmd)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-10s %7s %6s %6s  %s\n",
		"ID", "STARTED", "DURATION", "SOURCES", "POSTS", "FAILED", "ARTIFACT")
	for _, r := range runs {
		fmt.Fprintf(out, "%-6d %-20s %-10s %7d %6d %6d  %s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.SourceCount,
			r.PostCount,
			r.FailedCount,
			r.ArtifactPath,
		)
	}
	return nil
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)

	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, artifact, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	// Run details go to stderr so stdout holds only the artifact JSON.
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Run %d started %s, finished %s (digest %s)\n",
		rec.ID,
		rec.StartedAt.Local().Format(time.DateTime),
		rec.FinishedAt.Local().Format(time.DateTime),
		rec.Digest,
	)
	for _, src := range rec.Sources {
		if src.Error != "" {
			fmt.Fprintf(errOut, "  [!] %-24s %-4s FAILED: %s\n", src.Name, src.Kind, src.Error)
			continue
		}
		fmt.Fprintf(errOut, "  [+] %-24s %-4s %5d post(s) in %s\n",
			src.Name, src.Kind, src.PostCount, src.Duration.Round(time.Millisecond))
	}

	if _, err := report.NewJSONWriter(cmd.OutOrStdout()).Write(artifact); err != nil {
		return err
	}
	return nil
}

func runHistoryDeleteCmd(cmd *cobra.Command, args []string) error {
	setupLogger(cmd)

	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteRun(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %d\n", id)
	return nil
}
