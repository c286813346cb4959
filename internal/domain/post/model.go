// internal/domain/post/model.go

package post

import (
	"time"
)

// Sentinel texts rendered when a collaborator could not supply data
const (
	NoDetailsText  = "No details available"
	NoSubtitleText = "No subtitle available"
)

// Details is the structured metadata record of a single video post
type Details struct {
	VideoID           string    `json:"video_id"`
	URL               string    `json:"url,omitempty"`
	Description       string    `json:"description"`
	Author            string    `json:"author,omitempty"`
	Hashtags          []string  `json:"hashtags,omitempty"`
	Likes             float64   `json:"likes"`
	Shares            float64   `json:"shares"`
	Comments          float64   `json:"comments"`
	Views             float64   `json:"views"`
	Bookmarks         float64   `json:"bookmarks"`
	DurationSeconds   float64   `json:"duration_seconds"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
	SubtitleLanguages []string  `json:"subtitle_languages,omitempty"`
}

// Subtitle is a transcript of a video in one language
type Subtitle struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Summary is a compact search hit
type Summary struct {
	VideoID     string  `json:"video_id"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	Author      string  `json:"author,omitempty"`
	Likes       float64 `json:"likes"`
	Views       float64 `json:"views"`
}

// SearchQuery defines a keyword search against the platform
type SearchQuery struct {
	Keywords string
	Count    int
	Cursor   int
}

// SearchResult is one page of search hits
type SearchResult struct {
	Query   string    `json:"query"`
	Items   []Summary `json:"items"`
	Cursor  int       `json:"cursor"`
	HasMore bool      `json:"has_more"`
}

// Metrics holds engagement figures derived from a post's counters
type Metrics struct {
	Likes           float64 `json:"likes"`
	Shares          float64 `json:"shares"`
	Comments        float64 `json:"comments"`
	Views           float64 `json:"views"`
	DurationSeconds float64 `json:"duration_seconds"`
	Engagement      float64 `json:"engagement"`
	EngagementRate  float64 `json:"engagement_rate"`
	SocialProof     float64 `json:"social_proof"`
}

// Signals holds narrative cues found in the description and transcript
type Signals struct {
	HashtagCount  int      `json:"hashtag_count"`
	HookHits      []string `json:"hook_hits"`
	CTAHits       []string `json:"cta_hits"`
	RetentionHits []string `json:"retention_hits"`
}

// Report is the structured outcome of a virality analysis
type Report struct {
	Metrics         Metrics  `json:"metrics"`
	Signals         Signals  `json:"signals"`
	Recommendations []string `json:"recommendations"`
}
