// Package config holds the run configuration for threadharvest.
//
// Configuration is assembled in three layers, later layers winning:
//  1. Defaults from NewConfig
//  2. The YAML run file (.threadharvest in the current or home directory,
//     or the path given with --config)
//  3. Command-line flags
//
// Reddit credentials are never read from the run file. They come from the
// environment (REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USER_AGENT),
// optionally pre-loaded from a .env file.
//
// Validate is called once after all layers are applied and returns one of
// the sentinel errors in errors.go, so callers can use errors.Is.
package config
