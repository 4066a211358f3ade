package fetch

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Defaults for the retry and pacing policy.
const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 2.0
	DefaultBackoffUnit = time.Second
	DefaultMinDelay    = 2 * time.Second
	DefaultMaxDelay    = 4 * time.Second
)

// Sleeper pauses for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher issues fetches with bounded retry, exponential backoff, and a
// randomized pause after each success.
//
// The pause is taken before Fetch returns, so the request rate is bounded no
// matter how fast the caller loops. Fetcher keeps no per-call state and is
// safe for concurrent use; concurrent callers should share a Gate.
type Fetcher struct {
	// doc performs the single underlying request.
	doc DocumentFetcher

	// gate, if set, admits each attempt.
	gate *Gate

	// maxRetries is the total number of attempts per URL.
	maxRetries int

	// backoffBase and backoffUnit give the sleep after failed attempt i:
	// backoffUnit * backoffBase^i.
	backoffBase float64
	backoffUnit time.Duration

	// minDelay and maxDelay bound the uniform post-success pause.
	minDelay time.Duration
	maxDelay time.Duration

	sleep  Sleeper
	jitter func(lo, hi time.Duration) time.Duration
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxRetries sets the number of attempts per URL. Values below 1 are ignored.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxRetries = n
		}
	}
}

// WithBackoff sets the exponential backoff base and unit.
func WithBackoff(base float64, unit time.Duration) Option {
	return func(f *Fetcher) {
		f.backoffBase = base
		f.backoffUnit = unit
	}
}

// WithDelayRange sets the bounds of the post-success pause.
func WithDelayRange(lo, hi time.Duration) Option {
	return func(f *Fetcher) {
		f.minDelay = lo
		f.maxDelay = hi
	}
}

// WithGate makes every attempt pass the given admission gate.
func WithGate(g *Gate) Option {
	return func(f *Fetcher) {
		f.gate = g
	}
}

// WithSleeper replaces the wall-clock sleeper. Intended for tests.
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		f.sleep = s
	}
}

// WithJitter replaces the uniform random delay source. Intended for tests.
func WithJitter(j func(lo, hi time.Duration) time.Duration) Option {
	return func(f *Fetcher) {
		f.jitter = j
	}
}

// WithLogger sets the logger used to report exhausted URLs.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher around the given collaborator.
func New(doc DocumentFetcher, opts ...Option) *Fetcher {
	f := &Fetcher{
		doc:         doc,
		maxRetries:  DefaultMaxRetries,
		backoffBase: DefaultBackoffBase,
		backoffUnit: DefaultBackoffUnit,
		minDelay:    DefaultMinDelay,
		maxDelay:    DefaultMaxDelay,
		sleep:       sleepContext,
		jitter:      uniformDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch retrieves rawURL, which must be absolute.
//
// Each attempt is admitted by the gate and delegated to the collaborator.
// After a success the call pauses for a delay drawn from [minDelay, maxDelay]
// and returns the body. After a failed attempt i other than the last, it
// sleeps Backoff(i). When all attempts fail, or ctx is cancelled, the failure
// is logged and Fetch reports ok == false.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, bool) {
	host, err := hostOf(rawURL)
	if err != nil {
		f.logger.Warn("refusing to fetch URL", "url", rawURL, "error", err)
		return "", false
	}

	var lastErr error
	for attempt := range f.maxRetries {
		if err := f.gate.Wait(ctx, host); err != nil {
			lastErr = err
			break
		}

		body, err := f.doc.FetchDocument(ctx, rawURL)
		if err == nil {
			if err := f.sleep(ctx, f.jitter(f.minDelay, f.maxDelay)); err != nil {
				f.logger.Debug("post-fetch delay interrupted", "url", rawURL, "error", err)
			}
			return body, true
		}
		lastErr = err

		if attempt == f.maxRetries-1 {
			break
		}
		f.logger.Debug("fetch attempt failed, backing off",
			"url", rawURL,
			"attempt", attempt+1,
			"error", err,
		)
		if err := f.sleep(ctx, f.Backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	f.logger.Warn("failed to fetch URL",
		"url", rawURL,
		"attempts", f.maxRetries,
		"error", lastErr,
	)
	return "", false
}

// maxBackoff is the largest representable sleep.
const maxBackoff = time.Duration(math.MaxInt64)

// Backoff returns the sleep after failed attempt index attempt (0-based):
// backoffUnit * backoffBase^attempt, saturating at maxBackoff instead of
// overflowing.
func (f *Fetcher) Backoff(attempt int) time.Duration {
	d := float64(f.backoffUnit) * math.Pow(f.backoffBase, float64(attempt))
	if math.IsNaN(d) || d >= float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(d)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// uniformDelay draws a duration uniformly from [lo, hi].
func uniformDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
