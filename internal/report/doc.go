// Package report writes the outputs of a harvesting run.
//
// The JSON artifact is the primary output: JSONWriter encodes a
// model.RunArtifact, and WriteArtifactFile persists it atomically under a
// timestamped name. The summary writers (TextWriter for the terminal,
// MarkdownWriter for a shareable document) describe a finished run from a
// model.RunSummary.
package report
