package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"post_radar/internal/domain"
)

const maxFetchAttempts = 3

// Config holds enricher policy knobs.
type Config struct {
	PageURLBase string // instance base for building video page URLs
	RetryDelay  time.Duration
	KeepFiles   bool
}

// Enricher downloads the media attached to a post and extracts its text via
// OCR or transcription. Enrichment is best-effort: a post whose media cannot
// be fetched or read proceeds without evidence, it never fails.
type Enricher struct {
	images      ImageFetcher
	videos      VideoFetcher
	ocr         OCR
	transcriber Transcriber
	cfg         Config
	logger      *slog.Logger
}

func NewEnricher(images ImageFetcher, videos VideoFetcher, ocr OCR, transcriber Transcriber, cfg Config, logger *slog.Logger) *Enricher {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &Enricher{
		images:      images,
		videos:      videos,
		ocr:         ocr,
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logger.With("component", "media"),
	}
}

// Enrich fetches the referenced media and returns the surviving evidence, or
// nil when the media could not be obtained.
func (e *Enricher) Enrich(ctx context.Context, ref *domain.MediaRef) *domain.MediaEvidence {
	path, err := e.fetch(ctx, ref)
	if err != nil {
		e.logger.Warn("media fetch failed",
			"post_id", ref.PostID,
			"kind", ref.Kind,
			"error", err,
		)
		return nil
	}

	text := e.extractText(ctx, ref, path)
	e.cleanup(path)

	return &domain.MediaEvidence{Kind: ref.Kind, ExtractedText: text}
}

// fetch retries up to maxFetchAttempts with a fixed delay. Access denied is
// terminal on first occurrence.
func (e *Enricher) fetch(ctx context.Context, ref *domain.MediaRef) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		path, err := e.fetchOnce(ctx, ref)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, ErrForbidden) {
			return "", err
		}
		lastErr = err

		if attempt == maxFetchAttempts {
			break
		}
		e.logger.Debug("media fetch attempt failed, retrying",
			"post_id", ref.PostID,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.cfg.RetryDelay):
		}
	}

	return "", fmt.Errorf("after %d attempts: %w", maxFetchAttempts, lastErr)
}

func (e *Enricher) fetchOnce(ctx context.Context, ref *domain.MediaRef) (string, error) {
	switch ref.Kind {
	case domain.MediaImage:
		return e.images.FetchImage(ctx, ref.URL, ref.PostID)
	case domain.MediaVideo:
		pageURL := fmt.Sprintf("%s/%s/status/%s", e.cfg.PageURLBase, ref.Username, ref.PostID)
		res := e.videos.FetchVideo(ctx, pageURL, ref.PostID)
		switch res.Status {
		case FetchDownloaded:
			return res.Path, nil
		case FetchAlreadyPresent:
			e.logger.Debug("video already on disk, reusing", "post_id", ref.PostID, "path", res.Path)
			return res.Path, nil
		default:
			return "", res.Err
		}
	default:
		return "", fmt.Errorf("unknown media kind %q", ref.Kind)
	}
}

// extractText runs OCR or transcription over the saved file. Failures are
// logged and yield empty text; an unavailable OCR tool is not retried.
func (e *Enricher) extractText(ctx context.Context, ref *domain.MediaRef, path string) string {
	var (
		text string
		err  error
	)
	switch ref.Kind {
	case domain.MediaImage:
		text, err = e.ocr.ExtractText(ctx, path)
	case domain.MediaVideo:
		text, err = e.transcriber.Transcribe(ctx, path)
	}
	if err != nil {
		e.logger.Warn("text extraction failed",
			"post_id", ref.PostID,
			"kind", ref.Kind,
			"error", err,
		)
		return ""
	}
	return text
}

// cleanup removes the downloaded file to bound disk usage across a
// long-running process. Runs regardless of extraction outcome.
func (e *Enricher) cleanup(path string) {
	if e.cfg.KeepFiles || path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		e.logger.Warn("could not remove media file", "path", path, "error", err)
	}
}
