package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding the Reddit credentials.
const (
	EnvRedditClientID     = "REDDIT_CLIENT_ID"
	EnvRedditClientSecret = "REDDIT_CLIENT_SECRET"
	EnvRedditUserAgent    = "REDDIT_USER_AGENT"
)

// DefaultEnvFile is loaded from the current directory when present.
const DefaultEnvFile = ".env"

// LoadEnv loads Reddit credentials into c.
//
// When envFile is set it must exist and is loaded first. Otherwise a .env file
// in the current directory is loaded if present. Variables already set in the
// process environment take precedence over file values.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(DefaultEnvFile); err == nil {
		if err := godotenv.Load(DefaultEnvFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", DefaultEnvFile, err)
		}
	}

	c.RedditClientID = os.Getenv(EnvRedditClientID)
	c.RedditClientSecret = os.Getenv(EnvRedditClientSecret)
	if ua := os.Getenv(EnvRedditUserAgent); ua != "" {
		c.RedditUserAgent = ua
	}
	return nil
}
