// Package pipeline runs a harvesting run from configured sources to the
// finished artifact.
//
// A run is a fixed sequence of Sources, each either a category of the HTML
// platform (HTMLSource) or a subreddit of the API platform (APISource).
// The Orchestrator harvests them in order, tags each source's posts with
// themes, and collects the results into a model.RunArtifact.
//
// Failures are values: a source that fails is recorded as a failed
// model.SourceOutcome with an empty entry in the artifact, and the run
// carries on. Only cancellation of the run context stops a run early.
//
// Within an HTML category, item extraction may run concurrently using
// errgroup with a bounded limit; posts keep their crawl order either way.
package pipeline
