// Package reddit is a minimal client for the Reddit listing API.
//
// It authenticates with the OAuth2 client-credentials grant (an
// application-only token, no user context) and reads the top submissions
// of a subreddit for a time window, following the listing's "after" cursor
// until the requested number of submissions has been collected.
//
// Transient failures (429 and 5xx) are retried by the underlying resty
// client, honoring Retry-After. Everything else is reported as *APIError.
package reddit
