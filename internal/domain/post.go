package domain

import "time"

// MediaKind identifies the type of media attached to a post.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Author describes the account behind a post. PseudonymizedID is a one-way
// hash of the username plus a fixed salt; the raw username is kept alongside.
type Author struct {
	PseudonymizedID string `json:"pseudonymized_id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	Verified        bool   `json:"verified"`
}

// Engagement holds the public counters of a post. Absent counters are zero.
type Engagement struct {
	Replies  int `json:"replies"`
	Retweets int `json:"retweets"`
	Likes    int `json:"likes"`
}

// Total returns the sum of all counters.
func (e Engagement) Total() int {
	return e.Replies + e.Retweets + e.Likes
}

// MediaEvidence is what survives of an attached media file after enrichment:
// its kind and the text extracted from it. The file itself does not.
type MediaEvidence struct {
	Kind          MediaKind `json:"kind"`
	ExtractedText string    `json:"extracted_text,omitempty"`
}

// Post is one collected social-media post.
type Post struct {
	ID            string         `json:"post_id"`
	Text          string         `json:"text"`
	PublishedAt   string         `json:"published_at"`
	SourceURL     string         `json:"source_url"`
	Author        Author         `json:"author"`
	Engagement    Engagement     `json:"engagement"`
	SearchTerm    string         `json:"search_term"`
	CollectedAt   time.Time      `json:"collected_at"`
	HasMedia      bool           `json:"has_media"`
	IsReply       bool           `json:"is_reply"`
	MediaEvidence *MediaEvidence `json:"media_evidence,omitempty"`
}

// RiskAnalysis is the judgment returned by the external content-risk
// classifier for one post's text.
type RiskAnalysis struct {
	Verifiable bool   `json:"verifiable"`
	MainClaim  string `json:"main_claim"`
	Category   string `json:"category"`
	RiskScore  int    `json:"risk_score"`
	Rationale  string `json:"rationale"`
}

// ScoredPost is a post together with its risk analysis and composite score.
type ScoredPost struct {
	Post
	Analysis       RiskAnalysis `json:"analysis"`
	CompositeScore float64      `json:"composite_score"`
}

// MediaRef points at media discovered in a post container, before enrichment.
type MediaRef struct {
	Kind MediaKind
	// URL is the image URL for images. Empty for videos, which are fetched
	// through the post's page URL instead.
	URL      string
	Username string
	PostID   string
}
