package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/threadharvest/internal/fetch"
	"github.com/nao1215/threadharvest/internal/model"
)

// mapFetcher serves pages from a map and records every requested URL.
// URLs missing from the map are reported as absent.
type mapFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (m *mapFetcher) Fetch(_ context.Context, rawURL string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, rawURL)
	body, ok := m.pages[rawURL]
	return body, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testBaseURL = "https://ih.example"

func listingPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, h := range hrefs {
		b.WriteString(`<li><a class="post-link" href="` + h + `">post</a></li>`)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func TestCrawler_ListingURL(t *testing.T) {
	t.Parallel()

	c, err := NewCrawler(&mapFetcher{}, testBaseURL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.ListingURL("milestones", 3)
	want := "https://ih.example/categories/milestones?page=3"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNewCrawler_RejectsRelativeBase(t *testing.T) {
	t.Parallel()

	if _, err := NewCrawler(&mapFetcher{}, "/relative"); err == nil {
		t.Error("expected error for relative base URL")
	}
}

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("fetches exactly maxPages listing pages", func(t *testing.T) {
		t.Parallel()

		fetcher := &mapFetcher{pages: map[string]string{
			testBaseURL + "/categories/ideas?page=1": listingPage("/post/a"),
		}}
		c, err := NewCrawler(fetcher, testBaseURL, WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		c.Crawl(context.Background(), "ideas", 4)

		want := []string{
			testBaseURL + "/categories/ideas?page=1",
			testBaseURL + "/categories/ideas?page=2",
			testBaseURL + "/categories/ideas?page=3",
			testBaseURL + "/categories/ideas?page=4",
		}
		if diff := cmp.Diff(want, fetcher.calls); diff != "" {
			t.Errorf("listing fetches mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("keeps page then document order and duplicates", func(t *testing.T) {
		t.Parallel()

		fetcher := &mapFetcher{pages: map[string]string{
			testBaseURL + "/categories/ideas?page=1": listingPage("/post/a", "/post/b"),
			testBaseURL + "/categories/ideas?page=2": listingPage("/post/b", "https://other.example/post/c"),
		}}
		c, _ := NewCrawler(fetcher, testBaseURL, WithLogger(discardLogger()))

		got := c.Crawl(context.Background(), "ideas", 2)
		want := []string{
			testBaseURL + "/post/a",
			testBaseURL + "/post/b",
			testBaseURL + "/post/b",
			"https://other.example/post/c",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("item URLs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("skips a failed listing page", func(t *testing.T) {
		t.Parallel()

		fetcher := &mapFetcher{pages: map[string]string{
			testBaseURL + "/categories/revenue?page=1": listingPage("/post/1"),
			testBaseURL + "/categories/revenue?page=3": listingPage("/post/3"),
		}}
		c, _ := NewCrawler(fetcher, testBaseURL, WithLogger(discardLogger()))

		got := c.Crawl(context.Background(), "revenue", 3)
		want := []string{testBaseURL + "/post/1", testBaseURL + "/post/3"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("item URLs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("drops links without href", func(t *testing.T) {
		t.Parallel()

		page := `<html><body>
			<a class="post-link">no href</a>
			<a class="post-link" href="  ">blank</a>
			<a class="post-link" href="/post/ok">ok</a>
			<a class="other" href="/post/ignored">other</a>
		</body></html>`
		fetcher := &mapFetcher{pages: map[string]string{
			testBaseURL + "/categories/ideas?page=1": page,
		}}
		c, _ := NewCrawler(fetcher, testBaseURL, WithLogger(discardLogger()))

		got := c.Crawl(context.Background(), "ideas", 1)
		if diff := cmp.Diff([]string{testBaseURL + "/post/ok"}, got); diff != "" {
			t.Errorf("item URLs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returns empty non-nil slice when nothing is found", func(t *testing.T) {
		t.Parallel()

		c, _ := NewCrawler(&mapFetcher{}, testBaseURL, WithLogger(discardLogger()))
		got := c.Crawl(context.Background(), "ideas", 2)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty slice, got %#v", got)
		}
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		t.Parallel()

		fetcher := &mapFetcher{}
		c, _ := NewCrawler(fetcher, testBaseURL, WithLogger(discardLogger()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c.Crawl(ctx, "ideas", 5)
		if len(fetcher.calls) != 0 {
			t.Errorf("expected no fetches after cancellation, got %d", len(fetcher.calls))
		}
	})

	t.Run("honors custom item link selector", func(t *testing.T) {
		t.Parallel()

		page := `<div class="feed"><a class="story" href="/s/1">x</a><a class="post-link" href="/post/2">y</a></div>`
		fetcher := &mapFetcher{pages: map[string]string{
			testBaseURL + "/categories/ideas?page=1": page,
		}}
		sel := DefaultSelectors().Merge(Selectors{ItemLink: "a.story"})
		c, _ := NewCrawler(fetcher, testBaseURL, WithSelectors(sel), WithLogger(discardLogger()))

		got := c.Crawl(context.Background(), "ideas", 1)
		if diff := cmp.Diff([]string{testBaseURL + "/s/1"}, got); diff != "" {
			t.Errorf("item URLs mismatch (-want +got):\n%s", diff)
		}
	})
}

const fullPostPage = `<html><body>
<article>
  <h1 class="post-title">  We launched!  </h1>
  <span class="post-author">alice</span>
  <time class="post-date" datetime="2024-03-01T10:00:00Z">March 1</time>
  <span class="post-upvotes">1,204 upvotes</span>
  <span class="post-comment-count">2 comments</span>
  <div class="post-content"><p>First paragraph.</p><p>Hit our first <b>revenue</b> milestone.</p></div>
</article>
<div class="comment">
  <a class="comment-author">bob</a>
  <div class="comment-body">Congrats!</div>
  <span class="comment-upvotes">7</span>
</div>
<div class="comment">
  Anonymous note without author
</div>
</body></html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("reads every field", func(t *testing.T) {
		t.Parallel()

		itemURL := testBaseURL + "/post/we-launched?ref=feed"
		fetcher := &mapFetcher{pages: map[string]string{itemURL: fullPostPage}}
		e := NewExtractor(fetcher, WithLogger(discardLogger()))

		post, ok := e.Extract(context.Background(), itemURL)
		if !ok {
			t.Fatal("expected a post")
		}

		want := &model.Post{
			SourceID:  "/post/we-launched?ref=feed",
			URL:       itemURL,
			Title:     "We launched!",
			BodyText:  "First paragraph. Hit our first revenue milestone.",
			Author:    "alice",
			CreatedAt: "2024-03-01T10:00:00Z",
			Engagement: model.Engagement{
				Upvotes:      1204,
				CommentCount: 2,
			},
			Comments: []model.Comment{
				{Text: "Congrats!", Author: "bob", Upvotes: 7},
				{Text: "Anonymous note without author", Author: "", Upvotes: 0},
			},
		}
		if diff := cmp.Diff(want, post); diff != "" {
			t.Errorf("post mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing markers default to empty values", func(t *testing.T) {
		t.Parallel()

		itemURL := testBaseURL + "/post/bare"
		fetcher := &mapFetcher{pages: map[string]string{
			itemURL: `<html><body><div class="post-content">Only a body</div></body></html>`,
		}}
		e := NewExtractor(fetcher, WithLogger(discardLogger()))

		post, ok := e.Extract(context.Background(), itemURL)
		if !ok {
			t.Fatal("expected a post")
		}
		want := &model.Post{
			SourceID: "/post/bare",
			URL:      itemURL,
			BodyText: "Only a body",
			Comments: []model.Comment{},
		}
		if diff := cmp.Diff(want, post); diff != "" {
			t.Errorf("post mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("date falls back to text", func(t *testing.T) {
		t.Parallel()

		itemURL := testBaseURL + "/post/dated"
		fetcher := &mapFetcher{pages: map[string]string{
			itemURL: `<span class="post-date"> 2 days ago </span>`,
		}}
		e := NewExtractor(fetcher, WithLogger(discardLogger()))

		post, _ := e.Extract(context.Background(), itemURL)
		if post.CreatedAt != "2 days ago" {
			t.Errorf("expected date text, got %q", post.CreatedAt)
		}
	})

	t.Run("latin-1 page is decoded before extraction", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte(`<html><body><h1 class="post-title">Caf\xe9</h1>` +
				`<div class="post-content">Caf\xe9 launched</div></body></html>`))
		}))
		defer server.Close()

		f := fetch.New(fetch.NewHTTPClient(),
			fetch.WithDelayRange(0, 0),
			fetch.WithLogger(discardLogger()),
		)
		e := NewExtractor(f, WithLogger(discardLogger()))

		post, ok := e.Extract(context.Background(), server.URL+"/post/cafe")
		if !ok {
			t.Fatal("expected a post")
		}
		if post.Title != "Café" {
			t.Errorf("expected title %q, got %q", "Café", post.Title)
		}
		if post.BodyText != "Café launched" {
			t.Errorf("expected body %q, got %q", "Café launched", post.BodyText)
		}
	})

	t.Run("failed fetch yields no post", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(&mapFetcher{}, WithLogger(discardLogger()))
		post, ok := e.Extract(context.Background(), testBaseURL+"/post/missing")
		if ok || post != nil {
			t.Errorf("expected absence, got %+v ok=%v", post, ok)
		}
	})
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"42", 42},
		{"1,204 upvotes", 1204},
		{"upvotes: 17 (3 today)", 17},
		{"none", 0},
		{"", 0},
		{"99999999999999999999999", 0},
		{"1.2k upvotes", 1200},
		{"3K", 3000},
		{"2.5m views", 2500000},
		{"1,500.4k", 1500400},
		{"4 kudos", 4},
		{"12 min read", 12},
		{"7 mins", 7},
		{"1.5", 1},
		{"-3", 0},
		{"score: -12", 0},
		{"99999999999999999999k", 0},
	}
	for _, tt := range tests {
		if got := parseCount(tt.in); got != tt.want {
			t.Errorf("parseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSelectors_Merge(t *testing.T) {
	t.Parallel()

	base := DefaultSelectors()
	merged := base.Merge(Selectors{Title: "h2.headline", CommentAuthor: ".who"})

	want := base
	want.Title = "h2.headline"
	want.CommentAuthor = ".who"
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if base.Title != "h1.post-title" {
		t.Error("merge must not modify the receiver")
	}
}
