package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/nao1215/threadharvest/internal/config"
	"github.com/nao1215/threadharvest/internal/database"
	"github.com/nao1215/threadharvest/internal/model"
	"github.com/nao1215/threadharvest/internal/reddit"
)

// TestNewRunCmd tests the run command creation.
func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	if cmd.Use != "run" {
		t.Errorf("expected use 'run', got %q", cmd.Use)
	}
	if cmd.Long == "" {
		t.Error("expected non-empty long description")
	}

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: "config", shorthand: "c", defValue: ""},
		{name: "env-file", defValue: ""},
		{name: "category", defValue: "[]"},
		{name: "subreddit", defValue: "[]"},
		{name: "pages", shorthand: "p", defValue: "5"},
		{name: "window", shorthand: "w", defValue: "week"},
		{name: "limit", shorthand: "l", defValue: "100"},
		{name: "concurrency", defValue: "1"},
		{name: "timeout", shorthand: "t", defValue: "0s"},
		{name: "request-timeout", defValue: "30s"},
		{name: "proxy", defValue: ""},
		{name: "output-dir", shorthand: "o", defValue: "."},
		{name: "markdown", shorthand: "m", defValue: "false"},
		{name: "no-history", defValue: "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// clearRedditEnv empties the credential variables for the test and unsets
// them, so that .env files can populate them.
func clearRedditEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvRedditClientID, config.EnvRedditClientSecret, config.EnvRedditUserAgent} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// parsedRun is a run command with parsed flags and its scratch directory.
type parsedRun struct {
	cmd *cobra.Command
	dir string
}

// parseRunCmd returns a run command with args parsed. A config file is always
// passed so the developer's own .threadharvest never leaks into the test.
func parseRunCmd(t *testing.T, configContent string, args ...string) *parsedRun {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "run.yaml")
	writeFile(t, configPath, configContent)

	cmd := NewRunCmd()
	if err := cmd.ParseFlags(append([]string{"--config", configPath}, args...)); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return &parsedRun{cmd: cmd, dir: dir}
}

// TestBuildConfig tests configuration building. It is not parallel because
// it controls the credential environment variables.
func TestBuildConfig(t *testing.T) {
	t.Run("uses defaults with an empty run file", func(t *testing.T) {
		clearRedditEnv(t)
		r := parseRunCmd(t, "")

		cfg, err := buildConfig(r.cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(config.DefaultCategories, cfg.Categories); diff != "" {
			t.Errorf("categories mismatch (-want +got):\n%s", diff)
		}
		if len(cfg.Subreddits) != 0 {
			t.Errorf("expected no subreddits without credentials, got %v", cfg.Subreddits)
		}
		if cfg.MaxPages != config.DefaultMaxPages {
			t.Errorf("expected MaxPages %d, got %d", config.DefaultMaxPages, cfg.MaxPages)
		}
		if !cfg.SaveHistory {
			t.Error("expected history to be enabled by default")
		}
	})

	t.Run("run file values survive flag defaults", func(t *testing.T) {
		clearRedditEnv(t)
		r := parseRunCmd(t, "maxPages: 2\ncategories: [ideas]\nfetch:\n  concurrency: 3\n")

		cfg, err := buildConfig(r.cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxPages != 2 {
			t.Errorf("expected MaxPages 2 from file, got %d", cfg.MaxPages)
		}
		if cfg.Concurrency != 3 {
			t.Errorf("expected Concurrency 3 from file, got %d", cfg.Concurrency)
		}
		if diff := cmp.Diff([]string{"ideas"}, cfg.Categories); diff != "" {
			t.Errorf("categories mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("flags override the run file", func(t *testing.T) {
		clearRedditEnv(t)
		r := parseRunCmd(t, "maxPages: 2\ncategories: [ideas]\n",
			"--category", "milestones", "--category", "revenue",
			"-p", "7", "-t", "5m", "-o", "out", "-m", "--no-history",
			"--proxy", "socks5://127.0.0.1:9050",
		)

		cfg, err := buildConfig(r.cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"milestones", "revenue"}, cfg.Categories); diff != "" {
			t.Errorf("categories mismatch (-want +got):\n%s", diff)
		}
		if cfg.MaxPages != 7 {
			t.Errorf("expected MaxPages 7, got %d", cfg.MaxPages)
		}
		if cfg.RunTimeout != 5*time.Minute {
			t.Errorf("expected RunTimeout 5m, got %s", cfg.RunTimeout)
		}
		if cfg.OutputDir != "out" {
			t.Errorf("expected OutputDir 'out', got %q", cfg.OutputDir)
		}
		if !cfg.MarkdownSummary {
			t.Error("expected markdown summary")
		}
		if cfg.SaveHistory {
			t.Error("expected history to be disabled")
		}
		if cfg.Proxy != "socks5://127.0.0.1:9050" {
			t.Errorf("unexpected proxy %q", cfg.Proxy)
		}
	})

	t.Run("loads credentials from env file and adds default subreddits", func(t *testing.T) {
		clearRedditEnv(t)
		r := parseRunCmd(t, "")
		envPath := filepath.Join(r.dir, "creds.env")
		writeFile(t, envPath, "REDDIT_CLIENT_ID=id\nREDDIT_CLIENT_SECRET=secret\n")
		if err := r.cmd.Flags().Set("env-file", envPath); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(r.cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RedditClientID != "id" || cfg.RedditClientSecret != "secret" {
			t.Errorf("credentials not loaded: %q %q", cfg.RedditClientID, cfg.RedditClientSecret)
		}
		if cfg.RedditUserAgent != config.DefaultRedditUserAgent {
			t.Errorf("expected default user agent, got %q", cfg.RedditUserAgent)
		}
		if diff := cmp.Diff(config.DefaultSubreddits, cfg.Subreddits); diff != "" {
			t.Errorf("subreddits mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("explicit subreddits are kept", func(t *testing.T) {
		clearRedditEnv(t)
		t.Setenv(config.EnvRedditClientID, "id")
		t.Setenv(config.EnvRedditClientSecret, "secret")
		r := parseRunCmd(t, "", "--subreddit", "SaaS")

		cfg, err := buildConfig(r.cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"SaaS"}, cfg.Subreddits); diff != "" {
			t.Errorf("subreddits mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		clearRedditEnv(t)
		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid run file", func(t *testing.T) {
		clearRedditEnv(t)
		r := parseRunCmd(t, "categories: [")
		if _, err := buildConfig(r.cmd); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("missing env file", func(t *testing.T) {
		clearRedditEnv(t)
		r := parseRunCmd(t, "", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
		if _, err := buildConfig(r.cmd); err == nil {
			t.Error("expected error for missing env file")
		}
	})
}

// fakePlatform serves a two-page category listing, its posts, and the Reddit
// token and listing endpoints.
func fakePlatform(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/categories/milestones", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `<html><body><a class="post-link" href="/post/launch">launch</a></body></html>`)
		case "2":
			fmt.Fprint(w, `<html><body><a class="post-link" href="/post/gone">gone</a></body></html>`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/post/launch", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
<h1 class="post-title">Launched my app</h1>
<div class="post-content">First revenue milestone after a difficult year</div>
<span class="post-author">maker</span>
<span class="post-upvotes">12 upvotes</span>
<div class="comment"><a class="comment-author">fan</a><p class="comment-body">Congrats</p></div>
</body></html>`)
	})
	mux.HandleFunc("/post/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		if id, secret, ok := r.BasicAuth(); !ok || id != "id" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/r/SaaS/top", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"after":"","children":[{"data":{"id":"abc","title":"Our biggest problem","selftext":"churn","author":"founder","score":-3,"num_comments":4,"created_utc":1709287200,"url":"https://example.com/abc"}}]}}`)
	})
	mux.HandleFunc("/r/Broken/top", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testHarvester returns a harvester with no pacing against srv.
func testHarvester(t *testing.T, srv *httptest.Server) (*harvester, *bytes.Buffer) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.BaseURL = srv.URL
	cfg.Categories = []string{"milestones"}
	cfg.MaxPages = 2
	cfg.Subreddits = []string{"SaaS", "Broken"}
	cfg.RedditClientID = "id"
	cfg.RedditClientSecret = "secret"
	cfg.MinDelay = 0
	cfg.MaxDelay = 0
	cfg.BackoffUnit = 0
	cfg.RequestTimeout = 5 * time.Second
	cfg.OutputDir = t.TempDir()
	cfg.DBDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	var stdout bytes.Buffer
	h := &harvester{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: &stdout,
		stderr: io.Discard,
		now:    time.Now,
		redditOpts: []reddit.Option{
			reddit.WithTokenURL(srv.URL + "/api/v1/access_token"),
			reddit.WithAPIBaseURL(srv.URL),
			reddit.WithRetry(0, 0, 0),
		},
	}
	return h, &stdout
}

func readArtifact(t *testing.T, dir string) (string, *model.RunArtifact) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "threadharvest_*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one artifact, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	artifact := model.NewRunArtifact()
	if err := json.Unmarshal(data, artifact); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	return matches[0], artifact
}

func TestHarvester_Run(t *testing.T) {
	t.Parallel()

	t.Run("writes one artifact with every source", func(t *testing.T) {
		t.Parallel()
		srv := fakePlatform(t)
		h, stdout := testHarvester(t, srv)

		if err := h.run(context.Background()); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		path, artifact := readArtifact(t, h.cfg.OutputDir)
		if diff := cmp.Diff([]string{"milestones", "SaaS", "Broken"}, artifact.Names()); diff != "" {
			t.Errorf("source order mismatch (-want +got):\n%s", diff)
		}

		milestones, _ := artifact.Get("milestones")
		if len(milestones.Posts) != 1 {
			t.Fatalf("expected the failing item to be dropped, got %d posts", len(milestones.Posts))
		}
		post := milestones.Posts[0]
		if post.SourceID != "/post/launch" || post.Title != "Launched my app" {
			t.Errorf("unexpected post %+v", post)
		}
		wantSuccesses := []model.ThemeMatch{
			{PostTitle: "Launched my app", Keyword: "launched"},
			{PostTitle: "Launched my app", Keyword: "milestone"},
			{PostTitle: "Launched my app", Keyword: "revenue"},
		}
		if diff := cmp.Diff(wantSuccesses, milestones.Themes.Successes); diff != "" {
			t.Errorf("successes mismatch (-want +got):\n%s", diff)
		}

		saas, _ := artifact.Get("SaaS")
		if len(saas.Posts) != 1 || saas.Posts[0].Engagement.Upvotes != 0 || saas.Posts[0].CreatedAt != "2024-03-01T10:00:00Z" {
			t.Errorf("unexpected subreddit posts %+v", saas.Posts)
		}
		if len(saas.Themes.Frustrations) != 1 || saas.Themes.Frustrations[0].Keyword != "problem" {
			t.Errorf("unexpected subreddit themes %+v", saas.Themes)
		}

		broken, ok := artifact.Get("Broken")
		if !ok || len(broken.Posts) != 0 {
			t.Errorf("expected failed source with empty posts, got %+v", broken)
		}

		out := stdout.String()
		if !strings.Contains(out, path) || !strings.Contains(out, "FAILED") {
			t.Errorf("summary should name the artifact and the failure:\n%s", out)
		}

		db, err := database.Open(h.cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		runs, err := db.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || runs[0].SourceCount != 3 || runs[0].FailedCount != 1 || runs[0].PostCount != 2 {
			t.Errorf("unexpected history %+v", runs)
		}
	})

	t.Run("writes markdown summary next to the artifact", func(t *testing.T) {
		t.Parallel()
		srv := fakePlatform(t)
		h, _ := testHarvester(t, srv)
		h.cfg.MarkdownSummary = true
		h.cfg.SaveHistory = false

		if err := h.run(context.Background()); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		path, _ := readArtifact(t, h.cfg.OutputDir)
		md, err := os.ReadFile(strings.TrimSuffix(path, ".json") + ".md")
		if err != nil {
			t.Fatalf("expected markdown summary: %v", err)
		}
		if !strings.Contains(string(md), "# threadharvest run") {
			t.Errorf("unexpected markdown:\n%s", md)
		}
		if _, err := os.Stat(filepath.Join(h.cfg.DBDir, database.FileName)); !os.IsNotExist(err) {
			t.Errorf("expected no history database, stat error = %v", err)
		}
	})

	t.Run("aborted run writes no artifact", func(t *testing.T) {
		t.Parallel()
		srv := fakePlatform(t)
		h, _ := testHarvester(t, srv)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := h.run(ctx)
		if !errors.Is(err, ErrRunAborted) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected ErrRunAborted wrapping context.Canceled, got %v", err)
		}
		entries, err := os.ReadDir(h.cfg.OutputDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty output directory, got %d entries", len(entries))
		}
	})
}

func TestRunRunCmd_ConfigurationError(t *testing.T) {
	clearRedditEnv(t)
	r := parseRunCmd(t, "", "--subreddit", "SaaS", "--category", "ideas")

	err := runRunCmd(r.cmd, nil)
	if !errors.Is(err, config.ErrMissingRedditCredentials) {
		t.Errorf("expected ErrMissingRedditCredentials, got %v", err)
	}
}
