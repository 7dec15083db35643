package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"post_radar/internal/domain"
)

type fakeCollector struct {
	runs chan struct{}
	err  error
}

func (f *fakeCollector) Collect(ctx context.Context) (*domain.CycleStats, error) {
	f.runs <- struct{}{}
	return &domain.CycleStats{}, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_RunsImmediatelyThenOnTicks(t *testing.T) {
	collector := &fakeCollector{runs: make(chan struct{}, 16)}
	s := NewScheduler(collector, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	// First run happens before any tick, then at least one more follows.
	for i := 0; i < 2; i++ {
		select {
		case <-collector.runs:
		case <-time.After(time.Second):
			t.Fatal("collector was not invoked in time")
		}
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestScheduler_CycleErrorDoesNotStopLoop(t *testing.T) {
	collector := &fakeCollector{runs: make(chan struct{}, 16), err: errors.New("cycle blew up")}
	s := NewScheduler(collector, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-collector.runs:
		case <-time.After(time.Second):
			t.Fatal("loop stopped after a failing cycle")
		}
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
