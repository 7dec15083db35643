package scheduler

import (
	"context"
	"log/slog"
	"time"

	"post_radar/internal/domain"
)

// Collector defines the interface for one collection cycle.
type Collector interface {
	Collect(ctx context.Context) (*domain.CycleStats, error)
}

// Scheduler runs collection cycles back to back, separated by a fixed
// interval, until the context is cancelled.
type Scheduler struct {
	collector Collector
	interval  time.Duration
	logger    *slog.Logger
}

func NewScheduler(collector Collector, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		interval:  interval,
		logger:    logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.collector.Collect(ctx); err != nil {
		s.logger.Error("collection cycle failed", "error", err)
	}
}
