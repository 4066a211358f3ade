package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/threadharvest/internal/crawler"
	"github.com/nao1215/threadharvest/internal/theme"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default run file name.
const DefaultConfigFile = ".threadharvest"

// xdgConfigFile is the run file name inside the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the run file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the structure of the YAML run file.
// Every field is optional; zero values leave the corresponding default in place.
type File struct {
	BaseURL    string   `yaml:"baseUrl,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
	MaxPages   int      `yaml:"maxPages,omitempty"`

	Reddit RedditFile `yaml:"reddit,omitempty"`
	Fetch  FetchFile  `yaml:"fetch,omitempty"`
	Output OutputFile `yaml:"output,omitempty"`

	Selectors    crawler.Selectors `yaml:"selectors,omitempty"`
	Keywords     theme.Keywords    `yaml:"keywords,omitempty"`
	WordBoundary bool              `yaml:"wordBoundary,omitempty"`
}

// RedditFile holds the social API section of the run file.
type RedditFile struct {
	Subreddits []string `yaml:"subreddits,omitempty"`
	Window     string   `yaml:"window,omitempty"`
	Limit      int      `yaml:"limit,omitempty"`
}

// FetchFile holds the fetch layer section of the run file.
// Durations use Go syntax ("1s", "500ms").
type FetchFile struct {
	MaxRetries     int           `yaml:"maxRetries,omitempty"`
	BackoffBase    float64       `yaml:"backoffBase,omitempty"`
	BackoffUnit    time.Duration `yaml:"backoffUnit,omitempty"`
	MinDelay       time.Duration `yaml:"minDelay,omitempty"`
	MaxDelay       time.Duration `yaml:"maxDelay,omitempty"`
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`
	RunTimeout     time.Duration `yaml:"runTimeout,omitempty"`
	Concurrency    int           `yaml:"concurrency,omitempty"`
	UserAgent      string        `yaml:"userAgent,omitempty"`
	Proxy          string        `yaml:"proxy,omitempty"`
}

// OutputFile holds the output section of the run file.
type OutputFile struct {
	Dir      string `yaml:"dir,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Markdown bool   `yaml:"markdown,omitempty"`
	// History disables the history database when explicitly set to false.
	History *bool `yaml:"history,omitempty"`
}

// LoadConfigFile reads a run file.
// It returns ErrConfigNotFound when the file does not exist.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile locates the run file:
//  1. configPath, if given and present
//  2. .threadharvest in the current directory
//  3. .threadharvest in the home directory
//  4. config.yaml in the XDG config directory
//
// It returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(XDGConfigDir(), xdgConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}

// Apply copies every non-zero value of the run file onto cfg.
func (f *File) Apply(cfg *Config) {
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if len(f.Categories) > 0 {
		cfg.Categories = append([]string(nil), f.Categories...)
	}
	if f.MaxPages != 0 {
		cfg.MaxPages = f.MaxPages
	}

	if len(f.Reddit.Subreddits) > 0 {
		cfg.Subreddits = append([]string(nil), f.Reddit.Subreddits...)
	}
	if f.Reddit.Window != "" {
		cfg.Window = f.Reddit.Window
	}
	if f.Reddit.Limit != 0 {
		cfg.Limit = f.Reddit.Limit
	}

	f.Fetch.apply(cfg)

	if f.Output.Dir != "" {
		cfg.OutputDir = f.Output.Dir
	}
	if f.Output.Prefix != "" {
		cfg.OutputPrefix = f.Output.Prefix
	}
	if f.Output.Markdown {
		cfg.MarkdownSummary = true
	}
	if f.Output.History != nil {
		cfg.SaveHistory = *f.Output.History
	}

	cfg.Selectors = cfg.Selectors.Merge(f.Selectors)
	if len(f.Keywords.Frustration) > 0 {
		cfg.Keywords.Frustration = append([]string(nil), f.Keywords.Frustration...)
	}
	if len(f.Keywords.Success) > 0 {
		cfg.Keywords.Success = append([]string(nil), f.Keywords.Success...)
	}
	if f.WordBoundary {
		cfg.WordBoundary = true
	}
}

func (ff FetchFile) apply(cfg *Config) {
	if ff.MaxRetries != 0 {
		cfg.MaxRetries = ff.MaxRetries
	}
	if ff.BackoffBase != 0 {
		cfg.BackoffBase = ff.BackoffBase
	}
	if ff.BackoffUnit != 0 {
		cfg.BackoffUnit = ff.BackoffUnit
	}
	if ff.MinDelay != 0 {
		cfg.MinDelay = ff.MinDelay
	}
	if ff.MaxDelay != 0 {
		cfg.MaxDelay = ff.MaxDelay
	}
	if ff.RequestTimeout != 0 {
		cfg.RequestTimeout = ff.RequestTimeout
	}
	if ff.RunTimeout != 0 {
		cfg.RunTimeout = ff.RunTimeout
	}
	if ff.Concurrency != 0 {
		cfg.Concurrency = ff.Concurrency
	}
	if ff.UserAgent != "" {
		cfg.UserAgent = ff.UserAgent
	}
	if ff.Proxy != "" {
		cfg.Proxy = ff.Proxy
	}
}
