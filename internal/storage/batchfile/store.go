package batchfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"post_radar/internal/domain"
)

const (
	batchPrefix          = "collection_"
	recommendationPrefix = "recommendations_"
	timestampLayout      = "20060102_150405"
)

// Store persists collection batches and recommendation reports as JSON array
// files in a single directory. One file per cycle, filename carrying the
// write timestamp.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// WriteBatch writes the cycle's posts as one timestamped JSON file and
// returns its path.
func (s *Store) WriteBatch(posts []domain.Post) (string, error) {
	return s.write(batchPrefix, posts)
}

// WriteRecommendations writes the ranked scored posts as one timestamped
// JSON file and returns its path.
func (s *Store) WriteRecommendations(scored []domain.ScoredPost) (string, error) {
	return s.write(recommendationPrefix, scored)
}

func (s *Store) write(prefix string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	name := prefix + time.Now().Format(timestampLayout) + ".json"
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ListBatches returns the paths of every persisted batch file, oldest first.
func (s *Store) ListBatches() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, batchPrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob batches: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadBatch reads one batch file back into posts.
func (s *Store) ReadBatch(path string) ([]domain.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var posts []domain.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return posts, nil
}
