package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadharvest/internal/collector"
	"github.com/nao1215/threadharvest/internal/config"
	"github.com/nao1215/threadharvest/internal/crawler"
	"github.com/nao1215/threadharvest/internal/database"
	"github.com/nao1215/threadharvest/internal/fetch"
	"github.com/nao1215/threadharvest/internal/model"
	"github.com/nao1215/threadharvest/internal/pipeline"
	"github.com/nao1215/threadharvest/internal/reddit"
	"github.com/nao1215/threadharvest/internal/report"
	"github.com/nao1215/threadharvest/internal/theme"
)

// ErrRunAborted is returned when the run deadline passes or the run is
// interrupted. No artifact is written in that case.
var ErrRunAborted = errors.New("run aborted before completion, no artifact written")

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest all configured sources and write the artifact",
		Long: `Run crawls every configured category of the HTML content platform and
collects the top submissions of every configured subreddit, in that order.
Posts are tagged with frustration and success keywords and written once to
<output-dir>/<prefix>_YYYYmmdd_HHMMSS.json.

A source that fails is recorded with an empty post list; the run goes on.
Subreddits need REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET. When credentials
are present and no subreddit is configured, the default subreddits are used.

Examples:
  # Harvest the default categories (and subreddits if credentials are set)
  threadharvest run

  # Harvest specific sources
  threadharvest run --category milestones --subreddit SaaS --window month

  # Crawl two pages per category with four parallel item fetches
  threadharvest run -p 2 --concurrency 4

  # Stop after ten minutes and write a Markdown summary as well
  threadharvest run -t 10m -m -o ./out`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .threadharvest in current or home directory)")
	cmd.Flags().String("env-file", "",
		"Load Reddit credentials from this .env file (default: .env if present)")

	cmd.Flags().StringSlice("category", nil,
		"HTML platform category to crawl (repeatable)")
	cmd.Flags().StringSlice("subreddit", nil,
		"Subreddit to collect (repeatable)")
	cmd.Flags().IntP("pages", "p", config.DefaultMaxPages,
		"Listing pages fetched per category")
	cmd.Flags().StringP("window", "w", config.DefaultWindow,
		"Top-listing window: hour, day, week, month, year, all")
	cmd.Flags().IntP("limit", "l", config.DefaultLimit,
		"Maximum submissions per subreddit")

	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Item pages extracted in parallel within a category")
	cmd.Flags().DurationP("timeout", "t", 0,
		"Abort the run after this duration (0 means no deadline)")
	cmd.Flags().Duration("request-timeout", config.DefaultRequestTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().String("proxy", "",
		"Proxy URL for platform requests (http, https or socks5)")

	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory the artifact is written to")
	cmd.Flags().BoolP("markdown", "m", false,
		"Also write a Markdown summary next to the artifact")
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	h := &harvester{
		cfg:    cfg,
		logger: logger,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		now:    time.Now,
	}
	return h.run(ctx)
}

// buildConfig creates a Config from defaults, the run file, flags and the
// environment, in increasing order of precedence for everything but
// credentials, which only come from the environment.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogJSON = getLogJSONFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path must exist; otherwise a missing file means defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.EnvFilePath, err = cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(cfg.EnvFilePath); err != nil {
		return nil, err
	}

	if len(cfg.Subreddits) == 0 && cfg.HasRedditCredentials() {
		cfg.Subreddits = append([]string(nil), config.DefaultSubreddits...)
	}

	return cfg, nil
}

// applyFlags copies explicitly set flags onto cfg, so that flag defaults
// never override values from the run file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("category") {
		if cfg.Categories, err = flags.GetStringSlice("category"); err != nil {
			return err
		}
	}
	if flags.Changed("subreddit") {
		if cfg.Subreddits, err = flags.GetStringSlice("subreddit"); err != nil {
			return err
		}
	}
	if flags.Changed("pages") {
		if cfg.MaxPages, err = flags.GetInt("pages"); err != nil {
			return err
		}
	}
	if flags.Changed("window") {
		if cfg.Window, err = flags.GetString("window"); err != nil {
			return err
		}
	}
	if flags.Changed("limit") {
		if cfg.Limit, err = flags.GetInt("limit"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.RunTimeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("request-timeout") {
		if cfg.RequestTimeout, err = flags.GetDuration("request-timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("markdown") {
		if cfg.MarkdownSummary, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return err
		}
		cfg.SaveHistory = !noHistory
	}
	return nil
}

// harvester carries out one run with a validated configuration.
type harvester struct {
	cfg    *config.Config
	logger *slog.Logger

	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	// redditOpts are appended to the Reddit client options.
	redditOpts []reddit.Option
}

// run harvests every source, writes the artifact exactly once, and then
// produces the summaries and the history record.
func (h *harvester) run(ctx context.Context) error {
	if h.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RunTimeout)
		defer cancel()
	}

	sources, err := h.buildSources()
	if err != nil {
		return err
	}

	analyzer := theme.NewAnalyzer(h.cfg.Keywords, theme.WithWordBoundary(h.cfg.WordBoundary))
	orchestrator := pipeline.New(analyzer, sources,
		pipeline.WithLogger(h.logger),
		pipeline.WithProgress(func(o model.SourceOutcome, index, total int) {
			fmt.Fprintln(h.stderr, report.ProgressLine(o, index, total))
		}),
	)

	fmt.Fprintf(h.stderr, "Harvesting %d source(s): %s\n",
		len(sources), strings.Join(orchestrator.Sources(), ", "))

	startedAt := h.now()
	artifact, outcomes := orchestrator.Run(ctx)
	finishedAt := h.now()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRunAborted, err)
	}

	path, err := report.WriteArtifactFile(h.cfg.OutputDir, h.cfg.OutputPrefix, startedAt, artifact)
	if err != nil {
		return err
	}

	summary := &model.RunSummary{
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		ArtifactPath: path,
		Artifact:     artifact,
		Outcomes:     outcomes,
	}

	if h.cfg.MarkdownSummary {
		if mdPath, err := writeMarkdownSummary(summary); err != nil {
			h.logger.Error("failed to write markdown summary", "error", err)
		} else {
			h.logger.Info("markdown summary written", "path", mdPath)
		}
	}

	if _, err := report.NewTextWriter(h.stdout, report.WithVerbose(h.cfg.Verbose)).WriteSummary(summary); err != nil {
		h.logger.Error("failed to print summary", "error", err)
	}

	if h.cfg.SaveHistory {
		h.saveHistory(ctx, summary)
	}
	return nil
}

// buildSources creates the sources in configured order: every category,
// then every subreddit.
func (h *harvester) buildSources() ([]pipeline.Source, error) {
	cfg := h.cfg
	sources := make([]pipeline.Source, 0, len(cfg.Categories)+len(cfg.Subreddits))

	if len(cfg.Categories) > 0 {
		client := fetch.NewHTTPClient(
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithTimeout(cfg.RequestTimeout),
			fetch.WithProxy(cfg.Proxy),
		)
		fetchOpts := []fetch.Option{
			fetch.WithMaxRetries(cfg.MaxRetries),
			fetch.WithBackoff(cfg.BackoffBase, cfg.BackoffUnit),
			fetch.WithDelayRange(cfg.MinDelay, cfg.MaxDelay),
			fetch.WithLogger(h.logger),
		}
		// A single worker is already paced by the post-fetch delay.
		if cfg.Concurrency > 1 {
			fetchOpts = append(fetchOpts, fetch.WithGate(fetch.NewGate(cfg.MinDelay)))
		}
		fetcher := fetch.New(client, fetchOpts...)

		crawlOpts := []crawler.Option{
			crawler.WithSelectors(cfg.Selectors),
			crawler.WithLogger(h.logger),
		}
		c, err := crawler.NewCrawler(fetcher, cfg.BaseURL, crawlOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create crawler: %w", err)
		}
		e := crawler.NewExtractor(fetcher, crawlOpts...)

		for _, category := range cfg.Categories {
			sources = append(sources, pipeline.NewHTMLSource(category, cfg.MaxPages, c, e,
				pipeline.WithConcurrency(cfg.Concurrency),
				pipeline.WithSourceLogger(h.logger),
			))
		}
	}

	if len(cfg.Subreddits) > 0 {
		opts := append([]reddit.Option{
			reddit.WithTimeout(cfg.RequestTimeout),
			reddit.WithLogger(h.logger),
		}, h.redditOpts...)
		client := reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent, opts...)
		coll := collector.New(client, h.logger)

		for _, subreddit := range cfg.Subreddits {
			sources = append(sources, pipeline.NewAPISource(subreddit, cfg.Window, cfg.Limit, coll))
		}
	}

	return sources, nil
}

// saveHistory records the run. The artifact on disk is the result of the
// run, so history failures are only logged.
func (h *harvester) saveHistory(ctx context.Context, summary *model.RunSummary) {
	db, err := database.Open(h.cfg.DBDir, database.DefaultOptions())
	if err != nil {
		h.logger.Error("failed to open history database", "dir", h.cfg.DBDir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, summary)
	if err != nil {
		h.logger.Error("failed to save run history", "error", err)
		return
	}
	h.logger.Info("run saved to history", "id", id, "db", db.Path())
}

// writeMarkdownSummary writes the summary next to the artifact, replacing
// the .json extension with .md.
func writeMarkdownSummary(summary *model.RunSummary) (string, error) {
	path := strings.TrimSuffix(summary.ArtifactPath, ".json") + ".md"

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // Path derives from the artifact path
	if err != nil {
		return "", fmt.Errorf("failed to create markdown summary: %w", err)
	}
	if _, err := report.NewMarkdownWriter(f).WriteSummary(summary); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write markdown summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close markdown summary: %w", err)
	}
	return path, nil
}
