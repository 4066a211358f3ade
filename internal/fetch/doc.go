// Package fetch is the network layer of the harvester.
//
// # Components
//
//   - HTTPClient: a resty-backed DocumentFetcher that turns transport errors
//     and non-2xx responses into *FetchError values
//   - Gate: the admission gate shared by all workers; one rate limiter per host
//   - Fetcher: bounded retry with exponential backoff and a randomized pause
//     after every successful fetch
//
// Fetcher.Fetch never returns an error. An exhausted URL is logged and
// reported as absent (ok == false), so callers skip the item and move on.
//
// # Usage
//
//	f := fetch.New(fetch.NewHTTPClient(fetch.WithUserAgent(ua)),
//	    fetch.WithMaxRetries(3),
//	    fetch.WithDelayRange(2*time.Second, 4*time.Second),
//	)
//	body, ok := f.Fetch(ctx, "https://www.indiehackers.com/categories/ideas?page=1")
package fetch
