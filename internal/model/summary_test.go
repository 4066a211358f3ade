package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRunSummary(t *testing.T) {
	t.Parallel()

	artifact := NewRunArtifact()
	artifact.Set("ideas", SourceData{Posts: []Post{*NewPost("/a"), *NewPost("/b")}})
	artifact.Set("Entrepreneur", SourceData{})

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &RunSummary{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Artifact:   artifact,
		Outcomes: []SourceOutcome{
			{Name: "ideas", Kind: SourceKindHTML},
			{Name: "Entrepreneur", Kind: SourceKindAPI, Err: errors.New("unauthorized")},
		},
	}

	if s.Duration() != 90*time.Second {
		t.Errorf("unexpected duration %v", s.Duration())
	}
	if s.FailedCount() != 1 {
		t.Errorf("expected 1 failure, got %d", s.FailedCount())
	}
	if s.TotalPosts() != 2 {
		t.Errorf("expected 2 posts, got %d", s.TotalPosts())
	}
	if (&RunSummary{}).TotalPosts() != 0 {
		t.Error("expected zero posts without artifact")
	}
}

func TestTopKeywords(t *testing.T) {
	t.Parallel()

	matches := []ThemeMatch{
		{PostTitle: "a", Keyword: "revenue"},
		{PostTitle: "b", Keyword: "launched"},
		{PostTitle: "c", Keyword: "revenue"},
		{PostTitle: "d", Keyword: "achieved"},
	}

	got := TopKeywords(matches, 2)
	want := []KeywordCount{{Keyword: "revenue", Count: 2}, {Keyword: "achieved", Count: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("top keywords mismatch (-want +got):\n%s", diff)
	}
	if all := TopKeywords(matches, 0); len(all) != 3 {
		t.Errorf("expected 3 keywords, got %d", len(all))
	}
}
