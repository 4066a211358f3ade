package crawler

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FieldKind identifies a field the extractor reads from a page.
type FieldKind int

const (
	// FieldTitle is the post headline.
	FieldTitle FieldKind = iota
	// FieldBody is the post body text.
	FieldBody
	// FieldAuthor is the post author name.
	FieldAuthor
	// FieldDate is the post creation date as displayed.
	FieldDate
	// FieldUpvotes is the post upvote counter.
	FieldUpvotes
	// FieldCommentCount is the post comment counter.
	FieldCommentCount
	// FieldItemLink is a listing-page link to a post.
	FieldItemLink
)

// String returns the field name.
func (k FieldKind) String() string {
	switch k {
	case FieldTitle:
		return "title"
	case FieldBody:
		return "body"
	case FieldAuthor:
		return "author"
	case FieldDate:
		return "date"
	case FieldUpvotes:
		return "upvotes"
	case FieldCommentCount:
		return "commentCount"
	case FieldItemLink:
		return "itemLink"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// CommentNode is one comment block as found on the page.
type CommentNode struct {
	Text    string
	Author  string
	Upvotes int
}

// FieldExtractor answers field queries against one parsed page.
// Missing markers yield "" for strings and 0 for counters; there are no
// errors at this level.
type FieldExtractor interface {
	// Field returns the whitespace-normalized text of the first match.
	Field(kind FieldKind) string

	// Count returns the first integer in the text of the first match.
	Count(kind FieldKind) int

	// Comments returns one node per comment block in document order.
	Comments() []CommentNode

	// Links returns the non-empty href values of every match in document order.
	Links(kind FieldKind) []string
}

// Document is the goquery-backed FieldExtractor.
type Document struct {
	doc       *goquery.Document
	selectors Selectors
}

var _ FieldExtractor = (*Document)(nil)

// NewDocument parses body as HTML.
func NewDocument(body string, selectors Selectors) (*Document, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		doc:       goquery.NewDocumentFromNode(root),
		selectors: selectors,
	}, nil
}

func (d *Document) selector(kind FieldKind) string {
	switch kind {
	case FieldTitle:
		return d.selectors.Title
	case FieldBody:
		return d.selectors.Body
	case FieldAuthor:
		return d.selectors.Author
	case FieldDate:
		return d.selectors.Date
	case FieldUpvotes:
		return d.selectors.Upvotes
	case FieldCommentCount:
		return d.selectors.CommentCount
	case FieldItemLink:
		return d.selectors.ItemLink
	default:
		return ""
	}
}

func (d *Document) first(kind FieldKind) *goquery.Selection {
	sel := d.selector(kind)
	if sel == "" {
		return nil
	}
	match := d.doc.Find(sel).First()
	if match.Length() == 0 {
		return nil
	}
	return match
}

// Field implements FieldExtractor. For FieldDate a datetime attribute is
// preferred over the displayed text.
func (d *Document) Field(kind FieldKind) string {
	match := d.first(kind)
	if match == nil {
		return ""
	}
	if kind == FieldDate {
		if dt, ok := match.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
	}
	return selectionText(match)
}

// Count implements FieldExtractor.
func (d *Document) Count(kind FieldKind) int {
	match := d.first(kind)
	if match == nil {
		return 0
	}
	return parseCount(selectionText(match))
}

// Comments implements FieldExtractor.
func (d *Document) Comments() []CommentNode {
	if d.selectors.Comment == "" {
		return []CommentNode{}
	}

	blocks := d.doc.Find(d.selectors.Comment)
	comments := make([]CommentNode, 0, blocks.Length())
	blocks.Each(func(_ int, block *goquery.Selection) {
		c := CommentNode{Text: selectionText(block)}
		if body := findFirst(block, d.selectors.CommentBody); body != nil {
			c.Text = selectionText(body)
		}
		if author := findFirst(block, d.selectors.CommentAuthor); author != nil {
			c.Author = selectionText(author)
		}
		if upvotes := findFirst(block, d.selectors.CommentUpvotes); upvotes != nil {
			c.Upvotes = parseCount(selectionText(upvotes))
		}
		comments = append(comments, c)
	})
	return comments
}

// Links implements FieldExtractor.
func (d *Document) Links(kind FieldKind) []string {
	links := make([]string, 0)
	sel := d.selector(kind)
	if sel == "" {
		return links
	}
	d.doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if href = strings.TrimSpace(href); href != "" {
			links = append(links, href)
		}
	})
	return links
}

func findFirst(scope *goquery.Selection, sel string) *goquery.Selection {
	if sel == "" {
		return nil
	}
	match := scope.Find(sel).First()
	if match.Length() == 0 {
		return nil
	}
	return match
}

// selectionText returns the text of every node in s with runs of
// whitespace collapsed to one space. Text from adjacent block elements is
// kept apart.
func selectionText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockElements[c.Data] {
			b.WriteByte(' ')
			collectText(c, b)
			b.WriteByte(' ')
			continue
		}
		collectText(c, b)
	}
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

var countPattern = regexp.MustCompile(`(-?)(\d[\d,]*)(\.\d+)?([kKmM]?)`)

// parseCount returns the first count in s. Thousands separators and a k/m
// suffix ("1.2k", "3M") are accepted. Negative, overflowing or missing
// values are 0.
func parseCount(s string) int {
	m := countPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return 0
	}
	if m[3] > m[2] {
		return 0
	}
	digits := strings.ReplaceAll(s[m[4]:m[5]], ",", "")

	multiplier := 1.0
	if m[9] > m[8] && !isLetterAt(s, m[9]) {
		switch s[m[8]] {
		case 'k', 'K':
			multiplier = 1e3
		case 'm', 'M':
			multiplier = 1e6
		}
	}

	if multiplier == 1 {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0
		}
		return n
	}

	if m[7] > m[6] {
		digits += s[m[6]:m[7]]
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	n := math.Round(f * multiplier)
	if n >= math.MaxInt {
		return 0
	}
	return int(n)
}

// isLetterAt reports whether s has an ASCII letter at byte index i.
func isLetterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	c := s[i]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
