package model

// Post is the canonical record every source is mapped into.
// HTML and API sources fill different subsets of the fields; a missing
// value is an empty string or zero, never an error.
type Post struct {
	// SourceID identifies the post within its source.
	// For HTML sources it is the item's relative path, for API sources
	// the platform's submission identifier.
	SourceID string `json:"sourceId"`

	// URL is the absolute location of the item, when known.
	URL string `json:"url,omitempty"`

	// Title is the post headline. May be empty.
	Title string `json:"title"`

	// BodyText is the plain-text post body. May be empty.
	BodyText string `json:"bodyText"`

	// Author is the post author. An unknown author is an empty string.
	Author string `json:"author"`

	// CreatedAt is the creation time as reported by the source.
	// API sources always populate it in RFC 3339 form; HTML sources
	// leave it empty when the markup has no date marker.
	CreatedAt string `json:"createdAt"`

	// Engagement holds the upvote and comment counters.
	Engagement Engagement `json:"engagement"`

	// Comments holds the post's comments in page order.
	// Always empty for API-sourced posts.
	Comments []Comment `json:"comments"`
}

// Engagement contains the interaction counters of a post.
// Both counters are non-negative.
type Engagement struct {
	Upvotes      int `json:"upvotes"`
	CommentCount int `json:"commentCount"`
}

// Comment is a single comment attached to a post.
type Comment struct {
	Text    string `json:"text"`
	Author  string `json:"author"`
	Upvotes int    `json:"upvotes"`
}

// NewPost creates a Post with the given source identifier and an
// empty, non-nil comment list so it serializes as [] rather than null.
func NewPost(sourceID string) *Post {
	return &Post{
		SourceID: sourceID,
		Comments: make([]Comment, 0),
	}
}

// normalize replaces nil slices and clamps negative counters.
func (p *Post) normalize() {
	if p.Comments == nil {
		p.Comments = make([]Comment, 0)
	}
	p.Engagement.Upvotes = nonNegative(p.Engagement.Upvotes)
	p.Engagement.CommentCount = nonNegative(p.Engagement.CommentCount)
	for i := range p.Comments {
		p.Comments[i].Upvotes = nonNegative(p.Comments[i].Upvotes)
	}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
