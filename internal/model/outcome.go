package model

import "time"

// SourceKind distinguishes the two classes of sources.
type SourceKind string

const (
	// SourceKindHTML is a paginated HTML content platform category.
	SourceKindHTML SourceKind = "html"

	// SourceKindAPI is a social API platform source (a subreddit).
	SourceKindAPI SourceKind = "api"
)

// SourceOutcome is the result of harvesting a single source.
// A failed source carries its error and an empty post list; failures are
// values passed back to the orchestrator, never panics.
type SourceOutcome struct {
	// Name is the category or subreddit name used as the artifact key.
	Name string

	// Kind tells which kind of source produced the outcome.
	Kind SourceKind

	// Posts holds the harvested posts. Empty when Err is set.
	Posts []Post

	// Err is the reason the whole source failed, or nil.
	Err error

	// Duration is the wall-clock time spent on the source.
	Duration time.Duration
}

// Succeeded reports whether the source was harvested without a source-level failure.
func (o SourceOutcome) Succeeded() bool {
	return o.Err == nil
}

// ErrorMessage returns the failure reason, or an empty string on success.
func (o SourceOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
