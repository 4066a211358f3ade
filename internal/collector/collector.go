// Package collector maps submissions from the social API into canonical posts.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nao1215/threadharvest/internal/model"
	"github.com/nao1215/threadharvest/internal/reddit"
)

// SubmissionLister lists the top submissions of a source. *reddit.Client
// satisfies it.
type SubmissionLister interface {
	ListTopSubmissions(ctx context.Context, source, window string, limit int) ([]reddit.RawSubmission, error)
}

// CollectorError reports a failed collection for one source.
type CollectorError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *CollectorError) Error() string {
	return fmt.Sprintf("collect %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *CollectorError) Unwrap() error {
	return e.Err
}

// Collector turns one listing call into canonical posts. It does not retry;
// the lister owns transient-failure handling.
type Collector struct {
	lister SubmissionLister
	logger *slog.Logger
}

// New creates a Collector. A nil logger falls back to slog.Default().
func New(lister SubmissionLister, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{lister: lister, logger: logger}
}

// Collect lists up to limit top submissions of source for window and maps
// each to a Post, preserving order. API posts carry no comments.
// Every failure is returned as *CollectorError.
func (c *Collector) Collect(ctx context.Context, source, window string, limit int) ([]model.Post, error) {
	if !reddit.IsValidWindow(window) {
		return nil, &CollectorError{
			Source: source,
			Err:    fmt.Errorf("%w: %q", reddit.ErrInvalidWindow, window),
		}
	}

	subs, err := c.lister.ListTopSubmissions(ctx, source, window, limit)
	if err != nil {
		return nil, &CollectorError{Source: source, Err: err}
	}

	posts := make([]model.Post, 0, len(subs))
	for _, s := range subs {
		posts = append(posts, ToPost(s))
	}
	c.logger.Debug("collected submissions", "source", source, "window", window, "posts", len(posts))
	return posts, nil
}

// ToPost maps one submission. Negative counters are clamped to zero.
func ToPost(s reddit.RawSubmission) model.Post {
	p := model.NewPost(s.ID)
	p.URL = s.URL
	p.Title = s.Title
	p.BodyText = s.Selftext
	p.Author = s.Author
	p.CreatedAt = formatUnix(s.CreatedUTC)
	p.Engagement = model.Engagement{
		Upvotes:      max(s.Score, 0),
		CommentCount: max(s.NumComments, 0),
	}
	return *p
}

// formatUnix renders fractional Unix seconds as an RFC 3339 UTC timestamp.
func formatUnix(secs float64) string {
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC().Format(time.RFC3339)
}
