package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/threadharvest/internal/crawler"
	"github.com/nao1215/threadharvest/internal/reddit"
	"github.com/nao1215/threadharvest/internal/theme"
)

// Default configuration values.
// The harvesting defaults mirror the behavior of the scrapers this tool
// replaces: five listing pages per category, three fetch attempts with
// power-of-two backoff, and a 2-4 second pause after every successful fetch.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "threadharvest"

	// DefaultBaseURL is the HTML content platform that categories are crawled on.
	DefaultBaseURL = "https://www.indiehackers.com"

	// DefaultMaxPages is the fixed number of listing pages crawled per category.
	DefaultMaxPages = 5

	// DefaultWindow is the time window for top subreddit submissions.
	DefaultWindow = "week"

	// DefaultLimit caps the number of submissions collected per subreddit.
	DefaultLimit = 100

	// DefaultMaxRetries is the number of fetch attempts before giving up on a URL.
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the base of the exponential backoff between attempts.
	DefaultBackoffBase = 2.0

	// DefaultBackoffUnit is the duration that backoff exponents are multiplied by.
	DefaultBackoffUnit = 1 * time.Second

	// DefaultMinDelay and DefaultMaxDelay bound the pause after each successful fetch.
	// This pause is the request-rate floor towards the content platform.
	DefaultMinDelay = 2 * time.Second
	DefaultMaxDelay = 4 * time.Second

	// DefaultRequestTimeout is the timeout of a single HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultConcurrency of 1 keeps a single request in flight.
	DefaultConcurrency = 1

	// DefaultUserAgent is sent with every listing and item request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// DefaultRedditUserAgent is used when REDDIT_USER_AGENT is not set.
	// Reddit rejects requests with generic user agents.
	DefaultRedditUserAgent = "threadharvest/1.0 (+https://github.com/nao1215/threadharvest)"

	// DefaultOutputDir is where artifacts are written.
	DefaultOutputDir = "."

	// DefaultOutputPrefix is the artifact file name prefix.
	DefaultOutputPrefix = "threadharvest"
)

// DefaultCategories are the HTML platform categories crawled when none are configured.
var DefaultCategories = []string{"milestones", "ideas", "revenue"}

// DefaultSubreddits are the subreddits collected when credentials are available
// and none are configured.
var DefaultSubreddits = []string{"Entrepreneur", "smallbusiness", "ArtificialIntelligence"}

// Config holds all options of a harvesting run.
// It is built by the CLI and passed down explicitly; no package reads global
// configuration.
type Config struct {
	// BaseURL is the root of the HTML content platform.
	BaseURL string

	// Categories are the HTML platform categories to crawl.
	Categories []string

	// MaxPages is the number of listing pages crawled per category.
	// Exactly this many listing fetches are attempted; there is no last-page detection.
	MaxPages int

	// Subreddits are the social API sources to collect.
	Subreddits []string

	// Window is the top-listing time window (hour, day, week, month, year, all).
	Window string

	// Limit caps the number of submissions per subreddit.
	Limit int

	// MaxRetries is the number of fetch attempts per URL.
	MaxRetries int

	// BackoffBase and BackoffUnit define the sleep after failed attempt i:
	// BackoffUnit * BackoffBase^i.
	BackoffBase float64
	BackoffUnit time.Duration

	// MinDelay and MaxDelay bound the uniformly drawn pause after each
	// successful fetch. MinDelay is also the per-host admission interval when
	// Concurrency is above 1.
	MinDelay time.Duration
	MaxDelay time.Duration

	// RequestTimeout is the timeout of one HTTP request.
	RequestTimeout time.Duration

	// RunTimeout aborts the whole run when exceeded. Zero means no deadline.
	// An aborted run writes no artifact.
	RunTimeout time.Duration

	// Concurrency is the number of item pages extracted in parallel within a
	// category. 1 keeps the run strictly sequential.
	Concurrency int

	// UserAgent is the User-Agent header for HTML platform requests.
	UserAgent string

	// Proxy routes HTML platform requests through an http(s) or socks5 proxy.
	// Empty means a direct connection.
	Proxy string

	// OutputDir is the directory the artifact is written to.
	OutputDir string

	// OutputPrefix is the artifact file name prefix.
	OutputPrefix string

	// MarkdownSummary writes a Markdown summary next to the JSON artifact.
	MarkdownSummary bool

	// SaveHistory records the run in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON selects JSON log output.
	LogJSON bool

	// ConfigFilePath is the explicit run file path, if any.
	ConfigFilePath string

	// EnvFilePath is the explicit .env file path, if any.
	EnvFilePath string

	// Selectors are the markup selectors used to extract posts.
	Selectors crawler.Selectors

	// Keywords are the theme keyword sets.
	Keywords theme.Keywords

	// WordBoundary switches theme matching from substring to whole-word.
	WordBoundary bool

	// RedditClientID, RedditClientSecret and RedditUserAgent authenticate
	// the social API client. They are only read from the environment.
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
}

// NewConfig creates a Config populated with defaults.
// Subreddits are left empty because they need credentials; the CLI adds
// DefaultSubreddits when credentials are present and none were configured.
func NewConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Categories:      append([]string(nil), DefaultCategories...),
		MaxPages:        DefaultMaxPages,
		Window:          DefaultWindow,
		Limit:           DefaultLimit,
		MaxRetries:      DefaultMaxRetries,
		BackoffBase:     DefaultBackoffBase,
		BackoffUnit:     DefaultBackoffUnit,
		MinDelay:        DefaultMinDelay,
		MaxDelay:        DefaultMaxDelay,
		RequestTimeout:  DefaultRequestTimeout,
		Concurrency:     DefaultConcurrency,
		UserAgent:       DefaultUserAgent,
		OutputDir:       DefaultOutputDir,
		OutputPrefix:    DefaultOutputPrefix,
		SaveHistory:     true,
		DBDir:           XDGDataDir(),
		Selectors:       crawler.DefaultSelectors(),
		Keywords:        theme.DefaultKeywords(),
		RedditUserAgent: DefaultRedditUserAgent,
	}
}

// XDGDataDir returns the data directory holding the history database.
// On Linux: ~/.local/share/threadharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the configuration directory.
// On Linux: ~/.config/threadharvest
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// HasRedditCredentials reports whether a client ID and secret are set.
func (c *Config) HasRedditCredentials() bool {
	return c.RedditClientID != "" && c.RedditClientSecret != ""
}

// Validate checks the configuration and returns the first problem found.
// It is called once before any network activity.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 && len(c.Subreddits) == 0 {
		return ErrNoSource
	}
	if err := c.validateNames(); err != nil {
		return err
	}

	if len(c.Categories) > 0 {
		u, err := url.Parse(c.BaseURL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidBaseURL
		}
		if c.MaxPages <= 0 {
			return ErrInvalidMaxPages
		}
	}

	if c.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}
	if c.BackoffBase < 1 || c.BackoffUnit < 0 {
		return ErrInvalidBackoff
	}
	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return ErrInvalidDelay
	}
	if c.MinDelay > c.MaxDelay {
		return ErrInvalidDelayRange
	}
	if c.RequestTimeout <= 0 || c.RunTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "socks5") {
			return ErrInvalidProxy
		}
	}

	if len(c.Subreddits) > 0 {
		if c.Limit <= 0 {
			return ErrInvalidLimit
		}
		if !reddit.IsValidWindow(c.Window) {
			return ErrInvalidWindow
		}
		if !c.HasRedditCredentials() {
			return ErrMissingRedditCredentials
		}
	}

	if len(c.Keywords.Frustration) == 0 && len(c.Keywords.Success) == 0 {
		return ErrNoKeywords
	}

	return nil
}

// validateNames rejects blank and duplicate source names.
// Names are compared case-sensitively, as they are used verbatim as artifact keys.
func (c *Config) validateNames() error {
	seen := make(map[string]bool)
	names := make([]string, 0, len(c.Categories)+len(c.Subreddits))
	names = append(names, c.Categories...)
	names = append(names, c.Subreddits...)

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return ErrEmptySourceName
		}
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateSource, name)
		}
		seen[name] = true
	}
	return nil
}
