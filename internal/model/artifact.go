package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// SourceData is the artifact entry stored for one category or subreddit.
type SourceData struct {
	Posts  []Post      `json:"posts"`
	Themes ThemeReport `json:"themes"`
}

// RunArtifact is the document produced by one harvesting run.
// It maps a source name to its posts and themes, and remembers the order in
// which sources were added so the serialized document follows the
// configured source order.
//
// A RunArtifact is built in memory by the orchestrator and serialized once.
// It is not safe for concurrent use.
type RunArtifact struct {
	order   []string
	sources map[string]SourceData
}

// NewRunArtifact creates an empty artifact.
func NewRunArtifact() *RunArtifact {
	return &RunArtifact{
		order:   make([]string, 0),
		sources: make(map[string]SourceData),
	}
}

// Set stores the entry for a source, replacing any previous entry with the
// same name while keeping its original position.
// Nil slices are replaced with empty ones so the entry always serializes as
// {"posts": [], "themes": {"frustrations": [], "successes": []}}.
// Posts are copied before normalizing; the caller's slices are not modified.
func (a *RunArtifact) Set(name string, data SourceData) {
	posts := make([]Post, len(data.Posts))
	copy(posts, data.Posts)
	for i := range posts {
		posts[i].Comments = slices.Clone(posts[i].Comments)
		posts[i].normalize()
	}
	data.Posts = posts
	data.Themes.normalize()

	if _, ok := a.sources[name]; !ok {
		a.order = append(a.order, name)
	}
	a.sources[name] = data
}

// Get returns the entry for a source.
func (a *RunArtifact) Get(name string) (SourceData, bool) {
	data, ok := a.sources[name]
	return data, ok
}

// Names returns the source names in insertion order.
func (a *RunArtifact) Names() []string {
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Len returns the number of sources in the artifact.
func (a *RunArtifact) Len() int {
	return len(a.order)
}

// PostCount returns the total number of posts across all sources.
func (a *RunArtifact) PostCount() int {
	total := 0
	for _, data := range a.sources {
		total += len(data.Posts)
	}
	return total
}

// MarshalJSON encodes the artifact as a single object keyed by source name,
// in insertion order.
func (a *RunArtifact) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range a.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(a.sources[name])
		if err != nil {
			return nil, fmt.Errorf("failed to encode source %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// errArtifactNotObject is returned when decoding something other than a JSON object.
var errArtifactNotObject = errors.New("artifact must be a JSON object")

// UnmarshalJSON decodes an artifact, preserving the key order of the document.
func (a *RunArtifact) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errArtifactNotObject
	}

	decoded := NewRunArtifact()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errArtifactNotObject
		}

		var entry SourceData
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("failed to decode source %q: %w", name, err)
		}
		decoded.Set(name, entry)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = *decoded
	return nil
}
