package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"post_radar/internal/domain"
	"post_radar/internal/score"
)

// RecommendService reads every persisted batch, obtains a risk judgment per
// post, scores and ranks the verifiable ones, and persists one recommendation
// file.
type RecommendService struct {
	batches    BatchStore
	classifier RiskClassifier
	logger     *slog.Logger
}

func NewRecommendService(batches BatchStore, classifier RiskClassifier, logger *slog.Logger) *RecommendService {
	return &RecommendService{
		batches:    batches,
		classifier: classifier,
		logger:     logger.With("component", "recommend"),
	}
}

// Run returns the ranked list and the path of the written recommendation
// file. Posts whose analysis fails or comes back non-verifiable are excluded,
// never scored.
func (s *RecommendService) Run(ctx context.Context) ([]domain.ScoredPost, string, error) {
	startTime := time.Now()

	paths, err := s.batches.ListBatches()
	if err != nil {
		return nil, "", fmt.Errorf("list batches: %w", err)
	}
	if len(paths) == 0 {
		return nil, "", fmt.Errorf("no collection batches found")
	}
	s.logger.Info("processing batches", "count", len(paths))

	var ranked []domain.ScoredPost
	analyzed, excluded := 0, 0

	for _, path := range paths {
		posts, err := s.batches.ReadBatch(path)
		if err != nil {
			return nil, "", fmt.Errorf("read batch: %w", err)
		}

		for i := range posts {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}

			analysis, err := s.classifier.Analyze(ctx, posts[i].Text)
			analyzed++
			if err != nil {
				excluded++
				s.logger.Warn("analysis failed, excluding post", "post_id", posts[i].ID, "error", err)
				continue
			}
			if !analysis.Verifiable {
				excluded++
				continue
			}

			ranked = append(ranked, domain.ScoredPost{
				Post:           posts[i],
				Analysis:       *analysis,
				CompositeScore: score.Composite(posts[i], *analysis),
			})
		}
	}

	if len(ranked) == 0 {
		s.logger.Info("no verifiable posts found", "analyzed", analyzed)
		return nil, "", nil
	}

	score.Rank(ranked)

	path, err := s.batches.WriteRecommendations(ranked)
	if err != nil {
		return nil, "", fmt.Errorf("persist recommendations: %w", err)
	}

	for i, sp := range score.Top(ranked, score.TopN) {
		s.logger.Info("recommended post",
			"rank", i+1,
			"score", sp.CompositeScore,
			"risk", sp.Analysis.RiskScore,
			"category", sp.Analysis.Category,
			"claim", sp.Analysis.MainClaim,
			"source_url", sp.SourceURL,
		)
	}

	s.logger.Info("recommendation run completed",
		"analyzed", analyzed,
		"excluded", excluded,
		"recommended", len(ranked),
		"file", path,
		"duration", time.Since(startTime),
	)

	return ranked, path, nil
}
