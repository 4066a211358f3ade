package model

// ThemeMatch records one keyword found in one post.
type ThemeMatch struct {
	PostTitle string `json:"postTitle"`
	Keyword   string `json:"keyword"`
}

// ThemeReport holds keyword theme attributions for a set of posts.
// There is one entry per (post, keyword) match; a post matching several
// keywords appears several times.
type ThemeReport struct {
	Frustrations []ThemeMatch `json:"frustrations"`
	Successes    []ThemeMatch `json:"successes"`
}

// NewThemeReport returns a report with empty, non-nil match lists.
func NewThemeReport() ThemeReport {
	return ThemeReport{
		Frustrations: make([]ThemeMatch, 0),
		Successes:    make([]ThemeMatch, 0),
	}
}

// Total returns the number of matches across both themes.
func (r ThemeReport) Total() int {
	return len(r.Frustrations) + len(r.Successes)
}

// KeywordCounts returns how many times each keyword matched in the given list.
func KeywordCounts(matches []ThemeMatch) map[string]int {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.Keyword]++
	}
	return counts
}

func (r *ThemeReport) normalize() {
	if r.Frustrations == nil {
		r.Frustrations = make([]ThemeMatch, 0)
	}
	if r.Successes == nil {
		r.Successes = make([]ThemeMatch, 0)
	}
}
