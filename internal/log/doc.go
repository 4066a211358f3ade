// Package log provides slog-based logging that masks credentials before they
// reach the output.
//
// Harvest runs handle Reddit OAuth client secrets and bearer tokens, and the
// HTTP layer logs request URLs that may carry user info. The SecureHandler
// wraps any slog.Handler and:
//   - Masks attributes whose keys name a secret (client_secret, token, ...)
//   - Masks values that look like bearer/basic credentials or JWTs
//   - Strips the password from URLs with user info
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	slog.SetDefault(logger)
//
//	logger.Debug("requesting token", "client_secret", secret) // client_secret=***REDACTED***
package log
