package model

import (
	"sort"
	"time"
)

// RunSummary describes a finished run for reporting and the run history.
type RunSummary struct {
	// StartedAt and FinishedAt bound the harvesting phase of the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// ArtifactPath is where the JSON artifact was written.
	ArtifactPath string

	Artifact *RunArtifact
	Outcomes []SourceOutcome
}

// Duration returns the wall-clock length of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailedCount returns the number of sources that failed.
func (s *RunSummary) FailedCount() int {
	n := 0
	for _, o := range s.Outcomes {
		if !o.Succeeded() {
			n++
		}
	}
	return n
}

// TotalPosts returns the number of posts across every source.
func (s *RunSummary) TotalPosts() int {
	if s.Artifact == nil {
		return 0
	}
	return s.Artifact.PostCount()
}

// KeywordCount is the number of matches for one keyword.
type KeywordCount struct {
	Keyword string
	Count   int
}

// TopKeywords returns at most n keywords of matches ordered by descending
// count, ties broken alphabetically. n <= 0 returns all of them.
func TopKeywords(matches []ThemeMatch, n int) []KeywordCount {
	counts := KeywordCounts(matches)
	top := make([]KeywordCount, 0, len(counts))
	for kw, c := range counts {
		top = append(top, KeywordCount{Keyword: kw, Count: c})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Keyword < top[j].Keyword
	})
	if n > 0 && len(top) > n {
		top = top[:n]
	}
	return top
}
