package fetch

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate is the admission gate every request passes before dispatch.
// It holds one token-bucket limiter per host, so concurrent workers share a
// single minimum interval towards each host instead of each worker pacing
// itself independently.
//
// A nil *Gate admits everything immediately.
type Gate struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewGate creates a Gate admitting at most one request per interval per host.
// A non-positive interval disables pacing.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host may be dispatched or ctx is done.
func (g *Gate) Wait(ctx context.Context, host string) error {
	if g == nil {
		return nil
	}
	return g.limiter(host).Wait(ctx)
}

// Interval returns the configured minimum interval per host.
func (g *Gate) Interval() time.Duration {
	if g == nil {
		return 0
	}
	return g.interval
}

func (g *Gate) limiter(host string) *rate.Limiter {
	host = strings.ToLower(host)

	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[host]
	if !ok {
		limit := rate.Inf
		if g.interval > 0 {
			limit = rate.Every(g.interval)
		}
		l = rate.NewLimiter(limit, 1)
		g.limiters[host] = l
	}
	return l
}

// hostOf returns the host of an absolute URL.
func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() || u.Host == "" {
		return "", ErrRelativeURL
	}
	return u.Host, nil
}
