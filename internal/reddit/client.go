package reddit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default endpoints and limits.
const (
	DefaultTokenURL   = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIBaseURL = "https://oauth.reddit.com"

	// MaxPageSize is the largest page the listing endpoint serves.
	MaxPageSize = 100

	// tokenSlack renews a token this long before it expires.
	tokenSlack = time.Minute
)

// Client reads subreddit listings with an application-only OAuth token.
// It is safe for concurrent use.
type Client struct {
	http         *resty.Client
	tokenURL     string
	apiBaseURL   string
	clientID     string
	clientSecret string
	userAgent    string
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(u string) Option {
	return func(c *Client) {
		c.tokenURL = u
	}
}

// WithAPIBaseURL overrides the OAuth API host.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) {
		c.apiBaseURL = strings.TrimSuffix(u, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRetry sets the number of retries for 429 and 5xx responses and the
// bounds of the wait between them.
func WithRetry(count int, minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryCount(count).
			SetRetryWaitTime(minWait).
			SetRetryMaxWaitTime(maxWait)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the given application credentials.
func NewClient(clientID, clientSecret, userAgent string, opts ...Option) *Client {
	c := &Client{
		http:         resty.New(),
		tokenURL:     DefaultTokenURL,
		apiBaseURL:   DefaultAPIBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		logger:       slog.Default(),
		now:          time.Now,
	}
	c.http.
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(retryable).
		SetRetryAfter(retryAfter)
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("User-Agent", c.userAgent)
	return c
}

// retryable reports whether a response is worth another attempt.
func retryable(r *resty.Response, _ error) bool {
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryAfter honors a Retry-After header given in seconds. A zero result
// lets resty fall back to its own backoff.
func retryAfter(c *resty.Client, r *resty.Response) (time.Duration, error) {
	if r == nil {
		return 0, nil
	}
	secs, err := strconv.Atoi(strings.TrimSpace(r.Header().Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0, nil
	}
	wait := time.Duration(secs) * time.Second
	if wait > c.RetryMaxWaitTime {
		wait = c.RetryMaxWaitTime
	}
	return wait, nil
}

// accessToken returns a cached token or fetches a fresh one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	if c.clientID == "" || c.clientSecret == "" {
		return "", ErrMissingCredentials
	}

	var tok tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.clientID, c.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tok).
		Post(c.tokenURL)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	if !resp.IsSuccess() {
		return "", newAPIError(pathOf(c.tokenURL), resp.StatusCode())
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("request access token: %w", ErrUnauthorized)
	}

	c.token = tok.AccessToken
	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl > tokenSlack {
		ttl -= tokenSlack
	}
	c.tokenExpiry = c.now().Add(ttl)
	c.logger.Debug("obtained reddit access token", "expires_in", tok.ExpiresIn)
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// ListTopSubmissions returns up to limit top submissions of subreddit for
// window, in listing order. Pages of at most MaxPageSize are requested
// until limit is reached or the listing has no further cursor.
func (c *Client) ListTopSubmissions(ctx context.Context, subreddit, window string, limit int) ([]RawSubmission, error) {
	if !IsValidWindow(window) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWindow, window)
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	endpoint := "/r/" + url.PathEscape(subreddit) + "/top"
	submissions := make([]RawSubmission, 0, min(limit, MaxPageSize))
	after := ""

	for len(submissions) < limit {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}

		req := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetQueryParams(map[string]string{
				"t":        window,
				"limit":    strconv.Itoa(min(limit-len(submissions), MaxPageSize)),
				"raw_json": "1",
			})
		if after != "" {
			req.SetQueryParam("after", after)
		}

		var page listing
		resp, err := req.SetResult(&page).Get(c.apiBaseURL + endpoint)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", endpoint, err)
		}
		if !resp.IsSuccess() {
			if resp.StatusCode() == http.StatusUnauthorized {
				c.invalidateToken()
			}
			return nil, newAPIError(endpoint, resp.StatusCode())
		}

		for _, child := range page.Data.Children {
			if len(submissions) == limit {
				break
			}
			submissions = append(submissions, child.Data)
		}
		c.logger.Debug("fetched listing page",
			"subreddit", subreddit,
			"items", len(page.Data.Children),
			"total", len(submissions),
		)

		if page.Data.After == "" || len(page.Data.Children) == 0 {
			break
		}
		after = page.Data.After
	}

	return submissions, nil
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
