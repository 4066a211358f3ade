// Package theme tags posts with keyword themes.
//
// The Analyzer is a pure function of its keyword sets and input: it holds no
// state between calls, so analyzing the same posts twice yields identical
// reports. Matching is case-insensitive substring containment by default,
// which means "problem" also matches "problems" and "launched" matches
// "relaunched". WithWordBoundary switches to whole-word matching.
package theme
