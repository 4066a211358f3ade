package crawler

import (
	"context"
	"net/url"

	"github.com/nao1215/threadharvest/internal/model"
)

// Extractor turns one post page into a model.Post.
type Extractor struct {
	fetcher PageFetcher
	opts    options
}

// NewExtractor creates an Extractor.
func NewExtractor(fetcher PageFetcher, opts ...Option) *Extractor {
	return &Extractor{
		fetcher: fetcher,
		opts:    newOptions(opts),
	}
}

// Extract fetches itemURL and reads every post field independently.
// Missing markers leave their field empty or zero. The result is absent
// only when the page itself could not be fetched or parsed.
func (e *Extractor) Extract(ctx context.Context, itemURL string) (*model.Post, bool) {
	body, ok := e.fetcher.Fetch(ctx, itemURL)
	if !ok {
		return nil, false
	}

	doc, err := NewDocument(body, e.opts.selectors)
	if err != nil {
		e.opts.logger.Warn("failed to parse post page", "url", itemURL, "error", err)
		return nil, false
	}

	return PostFromDocument(doc, itemURL), true
}

// PostFromDocument builds a Post from an already parsed page.
func PostFromDocument(doc FieldExtractor, itemURL string) *model.Post {
	post := model.NewPost(sourceIDOf(itemURL))
	post.URL = itemURL
	post.Title = doc.Field(FieldTitle)
	post.BodyText = doc.Field(FieldBody)
	post.Author = doc.Field(FieldAuthor)
	post.CreatedAt = doc.Field(FieldDate)
	post.Engagement = model.Engagement{
		Upvotes:      doc.Count(FieldUpvotes),
		CommentCount: doc.Count(FieldCommentCount),
	}
	for _, c := range doc.Comments() {
		post.Comments = append(post.Comments, model.Comment{
			Text:    c.Text,
			Author:  c.Author,
			Upvotes: c.Upvotes,
		})
	}
	return post
}

// sourceIDOf returns the path and query of itemURL, which identifies the
// post on its platform.
func sourceIDOf(itemURL string) string {
	u, err := url.Parse(itemURL)
	if err != nil {
		return itemURL
	}
	return u.RequestURI()
}
