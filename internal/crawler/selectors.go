package crawler

// Selectors are the CSS selectors that locate post fields in the
// platform's markup. Every field is looked up independently, so a selector
// that matches nothing only blanks that one field.
type Selectors struct {
	// ItemLink selects the anchors on a listing page that point to posts.
	ItemLink string `yaml:"itemLink,omitempty"`

	Title        string `yaml:"title,omitempty"`
	Body         string `yaml:"body,omitempty"`
	Author       string `yaml:"author,omitempty"`
	Date         string `yaml:"date,omitempty"`
	Upvotes      string `yaml:"upvotes,omitempty"`
	CommentCount string `yaml:"commentCount,omitempty"`

	// Comment selects one block per comment. The remaining comment
	// selectors are evaluated inside each block.
	Comment        string `yaml:"comment,omitempty"`
	CommentAuthor  string `yaml:"commentAuthor,omitempty"`
	CommentBody    string `yaml:"commentBody,omitempty"`
	CommentUpvotes string `yaml:"commentUpvotes,omitempty"`
}

// DefaultSelectors returns the selectors matching the current platform markup.
func DefaultSelectors() Selectors {
	return Selectors{
		ItemLink:       "a.post-link",
		Title:          "h1.post-title",
		Body:           "div.post-content",
		Author:         ".post-author",
		Date:           ".post-date",
		Upvotes:        ".post-upvotes",
		CommentCount:   ".post-comment-count",
		Comment:        "div.comment",
		CommentAuthor:  "a.comment-author",
		CommentBody:    ".comment-body",
		CommentUpvotes: ".comment-upvotes",
	}
}

// Merge returns s with every non-empty field of override applied.
func (s Selectors) Merge(override Selectors) Selectors {
	pick := func(base, o string) string {
		if o != "" {
			return o
		}
		return base
	}
	return Selectors{
		ItemLink:       pick(s.ItemLink, override.ItemLink),
		Title:          pick(s.Title, override.Title),
		Body:           pick(s.Body, override.Body),
		Author:         pick(s.Author, override.Author),
		Date:           pick(s.Date, override.Date),
		Upvotes:        pick(s.Upvotes, override.Upvotes),
		CommentCount:   pick(s.CommentCount, override.CommentCount),
		Comment:        pick(s.Comment, override.Comment),
		CommentAuthor:  pick(s.CommentAuthor, override.CommentAuthor),
		CommentBody:    pick(s.CommentBody, override.CommentBody),
		CommentUpvotes: pick(s.CommentUpvotes, override.CommentUpvotes),
	}
}
