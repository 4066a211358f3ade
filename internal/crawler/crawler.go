package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// PageFetcher retrieves a page body, reporting absence instead of an error.
// *fetch.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, bool)
}

// options are shared by Crawler and Extractor.
type options struct {
	selectors Selectors
	logger    *slog.Logger
}

// Option configures a Crawler or an Extractor.
type Option func(*options)

// WithSelectors overrides the markup selectors.
func WithSelectors(s Selectors) Option {
	return func(o *options) {
		o.selectors = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{selectors: DefaultSelectors()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Crawler walks the numbered listing pages of a category and collects the
// absolute URLs of the posts they link to.
//
// The page bound is fixed: exactly maxPages listing pages are requested even
// if the category runs out earlier. Pages past the end simply yield no links.
type Crawler struct {
	fetcher PageFetcher
	baseURL *url.URL
	opts    options
}

// NewCrawler creates a Crawler for the platform rooted at baseURL.
func NewCrawler(fetcher PageFetcher, baseURL string, opts ...Option) (*Crawler, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	return &Crawler{
		fetcher: fetcher,
		baseURL: u,
		opts:    newOptions(opts),
	}, nil
}

// ListingURL returns the URL of listing page n (1-based) of category.
func (c *Crawler) ListingURL(category string, page int) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/categories/" + url.PathEscape(category)
	u.RawPath = ""
	u.RawQuery = url.Values{"page": []string{fmt.Sprint(page)}}.Encode()
	u.Fragment = ""
	return u.String()
}

// Crawl fetches listing pages 1..maxPages of category and returns the
// resolved item URLs in page order, then document order. Duplicates are
// kept. A page that cannot be fetched is skipped.
func (c *Crawler) Crawl(ctx context.Context, category string, maxPages int) []string {
	logger := c.opts.logger.With("category", category)
	itemURLs := make([]string, 0)

	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			logger.Debug("crawl cancelled", "page", page, "error", ctx.Err())
			break
		}

		listingURL := c.ListingURL(category, page)
		body, ok := c.fetcher.Fetch(ctx, listingURL)
		if !ok {
			logger.Warn("skipping listing page", "page", page, "url", listingURL)
			continue
		}

		doc, err := NewDocument(body, c.opts.selectors)
		if err != nil {
			logger.Warn("skipping unparsable listing page", "page", page, "error", err)
			continue
		}

		found := 0
		for _, href := range doc.Links(FieldItemLink) {
			resolved, err := c.resolve(href)
			if err != nil {
				logger.Debug("dropping unresolvable link", "href", href, "error", err)
				continue
			}
			itemURLs = append(itemURLs, resolved)
			found++
		}
		logger.Debug("listing page crawled", "page", page, "links", found)
	}

	return itemURLs
}

// resolve turns href into an absolute URL against the base URL.
func (c *Crawler) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	resolved := c.baseURL.ResolveReference(ref)
	if resolved.Host == "" {
		return "", fmt.Errorf("no host after resolving %q", href)
	}
	return resolved.String(), nil
}
