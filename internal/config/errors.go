package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSource is returned when neither categories nor subreddits are configured.
	ErrNoSource = errors.New("no sources configured: add at least one category or subreddit")

	// ErrEmptySourceName is returned when a category or subreddit name is blank.
	ErrEmptySourceName = errors.New("source names must not be empty")

	// ErrDuplicateSource is returned when the same name is configured twice.
	// Source names are artifact keys and must be unique across both source kinds.
	ErrDuplicateSource = errors.New("duplicate source name")

	// ErrInvalidBaseURL is returned when the HTML platform base URL is not absolute.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

	// ErrInvalidMaxPages is returned when the page count is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxRetries is returned when the fetch attempt count is not positive.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be positive")

	// ErrInvalidBackoff is returned when the backoff base is below 1 or the unit is negative.
	ErrInvalidBackoff = errors.New("invalid backoff: base must be >= 1 and unit non-negative")

	// ErrInvalidDelay is returned when a post-fetch delay bound is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidDelayRange is returned when the minimum delay exceeds the maximum.
	ErrInvalidDelayRange = errors.New("invalid delay range: min delay exceeds max delay")

	// ErrInvalidTimeout is returned when the request timeout is not positive
	// or the run timeout is negative.
	ErrInvalidTimeout = errors.New("invalid timeout: request timeout must be positive, run timeout non-negative")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidProxy is returned when the proxy is not an http, https or socks5 URL.
	ErrInvalidProxy = errors.New("invalid proxy: must be an http://, https:// or socks5:// URL")

	// ErrInvalidLimit is returned when the subreddit submission limit is not positive.
	ErrInvalidLimit = errors.New("invalid limit: must be positive")

	// ErrInvalidWindow is returned for an unknown top-listing time window.
	ErrInvalidWindow = errors.New("invalid window: must be one of hour, day, week, month, year, all")

	// ErrMissingRedditCredentials is returned when subreddits are configured
	// without a client ID and secret.
	ErrMissingRedditCredentials = errors.New("missing Reddit credentials: set REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET")

	// ErrNoKeywords is returned when both theme keyword sets are empty.
	ErrNoKeywords = errors.New("no theme keywords configured")
)
