package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/threadharvest/internal/model"
)

// ThemeAnalyzer tags posts with keyword themes. *theme.Analyzer satisfies it.
type ThemeAnalyzer interface {
	Analyze(posts []model.Post) model.ThemeReport
}

// ProgressFunc is called after each source completes, with its 0-based
// position among total sources.
type ProgressFunc func(outcome model.SourceOutcome, index, total int)

// Orchestrator runs every configured source in order and assembles the
// run artifact.
type Orchestrator struct {
	sources  []Source
	analyzer ThemeAnalyzer
	logger   *slog.Logger
	progress ProgressFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithProgress registers a callback invoked as each source completes.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// New creates an Orchestrator. Sources run in the given order.
func New(analyzer ThemeAnalyzer, sources []Source, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sources:  append([]Source(nil), sources...),
		analyzer: analyzer,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Sources returns the names of the configured sources in run order.
func (o *Orchestrator) Sources() []string {
	names := make([]string, len(o.sources))
	for i, s := range o.sources {
		names[i] = s.Name()
	}
	return names
}

// Run harvests each source in order and returns the artifact together with
// one outcome per harvested source.
//
// A failing source is recorded in its outcome and contributes an empty
// entry; the run continues with the next source. Themes are computed for
// every entry. If ctx ends, the remaining sources are skipped and the
// caller should check ctx.Err() before persisting the artifact.
func (o *Orchestrator) Run(ctx context.Context) (*model.RunArtifact, []model.SourceOutcome) {
	artifact := model.NewRunArtifact()
	outcomes := make([]model.SourceOutcome, 0, len(o.sources))

	for i, src := range o.sources {
		select {
		case <-ctx.Done():
			o.logger.Warn("run cancelled",
				"next_source", src.Name(),
				"remaining", len(o.sources)-i,
				"reason", ctx.Err(),
			)
			return artifact, outcomes
		default:
		}

		o.logger.Info("harvesting source", "source", src.Name(), "kind", src.Kind())

		outcome := o.harvest(ctx, src)
		artifact.Set(src.Name(), model.SourceData{
			Posts:  outcome.Posts,
			Themes: o.analyzer.Analyze(outcome.Posts),
		})
		outcomes = append(outcomes, outcome)

		if outcome.Succeeded() {
			o.logger.Info("source harvested",
				"source", src.Name(),
				"posts", len(outcome.Posts),
				"elapsed", outcome.Duration,
			)
		} else {
			o.logger.Error("source failed",
				"source", src.Name(),
				"error", outcome.Err,
			)
		}
		if o.progress != nil {
			o.progress(outcome, i, len(o.sources))
		}
	}

	return artifact, outcomes
}

func (o *Orchestrator) harvest(ctx context.Context, src Source) model.SourceOutcome {
	start := time.Now()
	posts, err := src.Harvest(ctx)
	if err != nil || posts == nil {
		posts = make([]model.Post, 0)
	}
	return model.SourceOutcome{
		Name:     src.Name(),
		Kind:     src.Kind(),
		Posts:    posts,
		Err:      err,
		Duration: time.Since(start),
	}
}
