package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"post_radar/internal/domain"
)

// SearchDriver retrieves the search results page for one term, waiting until
// the given container selector matches or the driver's timeout expires.
type SearchDriver interface {
	Search(ctx context.Context, term, containerSelector string) (string, error)
	Close() error
}

// Extractor turns one post container into a validated post, or nothing.
type Extractor interface {
	Extract(item *goquery.Selection, term string) (*domain.Post, *domain.MediaRef, bool)
}

// Enricher resolves a media reference into evidence, or nil when the media
// could not be obtained.
type Enricher interface {
	Enrich(ctx context.Context, ref *domain.MediaRef) *domain.MediaEvidence
}

// DedupStore records which post identifiers have been collected.
type DedupStore interface {
	Add(id string)
	Commit(ids []string)
}

// BatchStore persists collection batches and recommendation reports.
type BatchStore interface {
	WriteBatch(posts []domain.Post) (string, error)
	ListBatches() ([]string, error)
	ReadBatch(path string) ([]domain.Post, error)
	WriteRecommendations(scored []domain.ScoredPost) (string, error)
}

// Publisher announces newly collected posts. May be nil-configured away.
type Publisher interface {
	Publish(ctx context.Context, post *domain.Post) error
	Close() error
}

// RiskClassifier judges misinformation risk for a post's text.
type RiskClassifier interface {
	Analyze(ctx context.Context, text string) (*domain.RiskAnalysis, error)
}
