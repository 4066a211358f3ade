package fetch

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

// DocumentFetcher retrieves the body of a single URL.
// Implementations report every failure, transport or HTTP status, as *FetchError.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, rawURL string) (string, error)
}

// HTTPClient is the resty-backed DocumentFetcher used in production.
// It performs exactly one request per call; retrying is the Fetcher's job.
type HTTPClient struct {
	client *resty.Client
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client.SetHeader("User-Agent", ua)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.client.SetTimeout(d)
	}
}

// WithProxy routes requests through the given proxy URL
// (http://, https:// or socks5://).
func WithProxy(proxyURL string) HTTPClientOption {
	return func(c *HTTPClient) {
		if proxyURL != "" {
			c.client.SetProxy(proxyURL)
		}
	}
}

// NewHTTPClient creates an HTTPClient with browser-like Accept headers.
func NewHTTPClient(opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{client: resty.New()}
	for _, opt := range opts {
		opt(c)
	}
	c.client.
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")
	return c
}

// FetchDocument performs one GET request and returns the response body
// decoded to UTF-8 according to the declared or sniffed charset.
func (c *HTTPClient) FetchDocument(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	if !resp.IsSuccess() {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Err: ErrUnexpectedStatus}
	}
	body, err := decodeBody(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Err: err}
	}
	return body, nil
}

func decodeBody(raw []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
