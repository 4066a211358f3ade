package reddit

import "slices"

// Windows accepted by the top listing.
const (
	WindowHour  = "hour"
	WindowDay   = "day"
	WindowWeek  = "week"
	WindowMonth = "month"
	WindowYear  = "year"
	WindowAll   = "all"
)

// ValidWindows lists every accepted time window.
var ValidWindows = []string{WindowHour, WindowDay, WindowWeek, WindowMonth, WindowYear, WindowAll}

// IsValidWindow reports whether w is an accepted time window.
func IsValidWindow(w string) bool {
	return slices.Contains(ValidWindows, w)
}

// RawSubmission is a submission as returned by the listing endpoint.
type RawSubmission struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
}

// listing is the envelope of a listing response.
type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data RawSubmission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
