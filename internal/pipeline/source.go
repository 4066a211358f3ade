package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/threadharvest/internal/model"
)

// Source is one named unit of harvesting: a category of the HTML platform
// or a subreddit of the API platform. Its name is the artifact key.
type Source interface {
	// Name returns the artifact key of the source.
	Name() string

	// Kind tells which platform the source belongs to.
	Kind() model.SourceKind

	// Harvest returns the posts of the source. An error means the whole
	// source failed; partial failures are absorbed below this level.
	Harvest(ctx context.Context) ([]model.Post, error)
}

// ItemCrawler lists the item URLs of a category. *crawler.Crawler
// satisfies it.
type ItemCrawler interface {
	Crawl(ctx context.Context, category string, maxPages int) []string
}

// ItemExtractor turns an item URL into a post. *crawler.Extractor
// satisfies it.
type ItemExtractor interface {
	Extract(ctx context.Context, itemURL string) (*model.Post, bool)
}

// PostCollector collects posts from the API platform.
// *collector.Collector satisfies it.
type PostCollector interface {
	Collect(ctx context.Context, source, window string, limit int) ([]model.Post, error)
}

// HTMLSource harvests one category of the HTML platform: it crawls the
// listing pages, then extracts every item. Items that cannot be extracted
// are dropped without affecting their siblings.
type HTMLSource struct {
	category    string
	maxPages    int
	crawler     ItemCrawler
	extractor   ItemExtractor
	concurrency int
	logger      *slog.Logger
}

// HTMLSourceOption configures an HTMLSource.
type HTMLSourceOption func(*HTMLSource)

// WithConcurrency sets how many items of the category are extracted at
// once. 1, the default, extracts strictly one item at a time.
func WithConcurrency(n int) HTMLSourceOption {
	return func(s *HTMLSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSourceLogger sets the logger of an HTMLSource.
func WithSourceLogger(logger *slog.Logger) HTMLSourceOption {
	return func(s *HTMLSource) {
		s.logger = logger
	}
}

// NewHTMLSource creates the source for one category.
func NewHTMLSource(category string, maxPages int, c ItemCrawler, e ItemExtractor, opts ...HTMLSourceOption) *HTMLSource {
	s := &HTMLSource{
		category:    category,
		maxPages:    maxPages,
		crawler:     c,
		extractor:   e,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name implements Source.
func (s *HTMLSource) Name() string { return s.category }

// Kind implements Source.
func (s *HTMLSource) Kind() model.SourceKind { return model.SourceKindHTML }

// Harvest implements Source. Posts keep the crawl order of their item
// URLs regardless of concurrency. The only error is cancellation of ctx.
func (s *HTMLSource) Harvest(ctx context.Context) ([]model.Post, error) {
	itemURLs := s.crawler.Crawl(ctx, s.category, s.maxPages)
	s.logger.Debug("category crawled", "category", s.category, "items", len(itemURLs))

	results := make([]*model.Post, len(itemURLs))
	if s.concurrency <= 1 {
		for i, itemURL := range itemURLs {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.extract(ctx, itemURL)
		}
	} else {
		// Workers never return an error, so one failed item does not
		// cancel the others.
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for i, itemURL := range itemURLs {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				results[i] = s.extract(ctx, itemURL)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // workers always return nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(results))
	for _, p := range results {
		if p != nil {
			posts = append(posts, *p)
		}
	}
	if dropped := len(itemURLs) - len(posts); dropped > 0 {
		s.logger.Info("dropped items that could not be extracted",
			"category", s.category,
			"dropped", dropped,
			"kept", len(posts),
		)
	}
	return posts, nil
}

func (s *HTMLSource) extract(ctx context.Context, itemURL string) *model.Post {
	post, ok := s.extractor.Extract(ctx, itemURL)
	if !ok {
		return nil
	}
	return post
}

// APISource harvests the top submissions of one subreddit.
type APISource struct {
	subreddit string
	window    string
	limit     int
	collector PostCollector
}

// NewAPISource creates the source for one subreddit.
func NewAPISource(subreddit, window string, limit int, c PostCollector) *APISource {
	return &APISource{
		subreddit: subreddit,
		window:    window,
		limit:     limit,
		collector: c,
	}
}

// Name implements Source.
func (s *APISource) Name() string { return s.subreddit }

// Kind implements Source.
func (s *APISource) Kind() model.SourceKind { return model.SourceKindAPI }

// Harvest implements Source.
func (s *APISource) Harvest(ctx context.Context) ([]model.Post, error) {
	return s.collector.Collect(ctx, s.subreddit, s.window, s.limit)
}
