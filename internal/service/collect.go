package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"post_radar/internal/config"
	"post_radar/internal/domain"
	"post_radar/internal/extract"
)

// CollectService runs one collection cycle: every search term in configured
// order, candidates in page order, enrichment inline. Faults are isolated at
// the search-term boundary.
type CollectService struct {
	driver    SearchDriver
	extractor Extractor
	enricher  Enricher
	dedup     DedupStore
	batches   BatchStore
	publisher Publisher
	terms     []string
	cfg       config.CollectConfig
	logger    *slog.Logger
}

func NewCollectService(
	driver SearchDriver,
	extractor Extractor,
	enricher Enricher,
	dedup DedupStore,
	batches BatchStore,
	publisher Publisher,
	terms []string,
	cfg config.CollectConfig,
	logger *slog.Logger,
) *CollectService {
	return &CollectService{
		driver:    driver,
		extractor: extractor,
		enricher:  enricher,
		dedup:     dedup,
		batches:   batches,
		publisher: publisher,
		terms:     terms,
		cfg:       cfg,
		logger:    logger.With("component", "collect"),
	}
}

// Collect processes every term once and persists at most one batch file. The
// batch is written before its identifiers are committed, so a crash between
// the two can only cause an idempotent re-collection, never data loss.
func (s *CollectService) Collect(ctx context.Context) (*domain.CycleStats, error) {
	startTime := time.Now()
	stats := &domain.CycleStats{Terms: len(s.terms)}
	s.logger.Info("starting collection cycle", "terms", len(s.terms))

	var batch []domain.Post
	for _, term := range s.terms {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		posts, err := s.collectTerm(ctx, term, stats)
		if err != nil {
			stats.Errors++
			s.logger.Error("search term failed, moving on", "term", term, "error", err)
			continue
		}
		batch = append(batch, posts...)
	}

	stats.New = len(batch)

	if len(batch) > 0 {
		path, err := s.batches.WriteBatch(batch)
		if err != nil {
			return stats, fmt.Errorf("persist batch: %w", err)
		}
		stats.BatchFile = path

		ids := make([]string, len(batch))
		for i := range batch {
			ids[i] = batch[i].ID
		}
		s.dedup.Commit(ids)

		if s.publisher != nil {
			for i := range batch {
				if err := s.publisher.Publish(ctx, &batch[i]); err != nil {
					stats.Errors++
				} else {
					stats.Published++
				}
			}
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("collection cycle completed",
		"candidates", stats.Candidates,
		"new", stats.New,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"published", stats.Published,
		"batch_file", stats.BatchFile,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *CollectService) collectTerm(ctx context.Context, term string, stats *domain.CycleStats) ([]domain.Post, error) {
	html, err := s.driver.Search(ctx, term, extract.ContainerSelector)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var posts []domain.Post
	doc.Find(extract.ContainerSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= s.cfg.MaxPerTerm {
			return false
		}
		stats.Candidates++

		post, ref, ok := s.extractor.Extract(item, term)
		if !ok {
			stats.Skipped++
			return true
		}

		if ref != nil {
			if evidence := s.enricher.Enrich(ctx, ref); evidence != nil {
				post.HasMedia = true
				post.MediaEvidence = evidence
			}
		}

		posts = append(posts, *post)
		s.dedup.Add(post.ID)
		s.logger.Debug("collected post", "post_id", post.ID, "term", term)
		return true
	})

	return posts, nil
}
