package theme

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/nao1215/threadharvest/internal/model"
)

// Keywords are the two keyword sets the analyzer looks for. Order is
// significant: matches are reported in declared keyword order.
type Keywords struct {
	Frustration []string `yaml:"frustration,omitempty"`
	Success     []string `yaml:"success,omitempty"`
}

// DefaultKeywords returns the built-in keyword sets.
func DefaultKeywords() Keywords {
	return Keywords{
		Frustration: []string{"challenge", "problem", "struggle", "difficult"},
		Success:     []string{"achieved", "launched", "milestone", "revenue"},
	}
}

// Analyzer attributes keyword themes to posts.
type Analyzer struct {
	keywords     Keywords
	wordBoundary bool

	fold        cases.Caser
	frustration []string
	success     []string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWordBoundary requires keywords to match whole words only.
func WithWordBoundary(enabled bool) Option {
	return func(a *Analyzer) {
		a.wordBoundary = enabled
	}
}

// NewAnalyzer creates an Analyzer for the given keyword sets.
func NewAnalyzer(keywords Keywords, opts ...Option) *Analyzer {
	a := &Analyzer{
		keywords: Keywords{
			Frustration: append([]string(nil), keywords.Frustration...),
			Success:     append([]string(nil), keywords.Success...),
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.fold = cases.Fold()
	a.frustration = foldAll(a.fold, a.keywords.Frustration)
	a.success = foldAll(a.fold, a.keywords.Success)
	return a
}

// Analyze returns one match per (post, keyword) pair where the folded
// keyword occurs in the folded "title bodyText" of the post. Matches are
// ordered by post, then by keyword within each set. Comments are not
// analyzed.
func (a *Analyzer) Analyze(posts []model.Post) model.ThemeReport {
	report := model.NewThemeReport()
	if len(posts) == 0 {
		return report
	}

	for _, p := range posts {
		text := a.fold.String(p.Title + " " + p.BodyText)
		for i, kw := range a.frustration {
			if a.contains(text, kw) {
				report.Frustrations = append(report.Frustrations, model.ThemeMatch{
					PostTitle: p.Title,
					Keyword:   a.keywords.Frustration[i],
				})
			}
		}
		for i, kw := range a.success {
			if a.contains(text, kw) {
				report.Successes = append(report.Successes, model.ThemeMatch{
					PostTitle: p.Title,
					Keyword:   a.keywords.Success[i],
				})
			}
		}
	}
	return report
}

func foldAll(fold cases.Caser, keywords []string) []string {
	folded := make([]string, len(keywords))
	for i, kw := range keywords {
		folded[i] = fold.String(kw)
	}
	return folded
}

func (a *Analyzer) contains(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	if !a.wordBoundary {
		return strings.Contains(text, keyword)
	}
	return containsWord(text, keyword)
}

// containsWord reports whether keyword occurs in text with no letter or
// digit directly before or after it.
func containsWord(text, keyword string) bool {
	for offset := 0; offset <= len(text)-len(keyword); {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(keyword)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
