// Package main provides the entry point for the threadharvest CLI.
//
// threadharvest collects community posts from a paginated HTML content
// platform and from subreddits, tags them with frustration and success
// themes, and writes one JSON artifact per run.
//
// Usage:
//
//	threadharvest run --category milestones --subreddit Entrepreneur
//	threadharvest history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
