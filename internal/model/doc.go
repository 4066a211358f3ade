// Package model defines the canonical records shared by every harvesting stage.
//
// This package contains the following main types:
//   - Post: A normalized post with engagement counters and comments
//   - ThemeReport: Keyword theme attributions for a set of posts
//   - RunArtifact: The per-run document keyed by category or subreddit name
//   - SourceOutcome: The success-or-failure result of harvesting one source
//
// Models live in their own package so that the crawler, collector, theme,
// pipeline and report packages can share them without import cycles.
//
// All types serialize to JSON with the field names used in the output artifact.
package model
