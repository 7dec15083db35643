package dedup

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Store is the persistent set of post identifiers already collected. The
// backing file holds one identifier per line, append-only. The in-memory set
// is the source of truth within a run: Add is visible to Seen immediately,
// before anything reaches the file.
type Store struct {
	path   string
	ids    map[string]struct{}
	logger *slog.Logger
}

func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		ids:    make(map[string]struct{}),
		logger: logger.With("component", "dedup"),
	}
}

// Load reads the backing file into memory. A missing file means an empty set,
// not an error. An unreadable file is logged and also yields an empty set, so
// a corrupt store never blocks collection.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		s.logger.Warn("could not read id file, starting with empty set", "path", s.path, "error", err)
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan id file: %w", err)
	}
	return nil
}

// Seen reports whether the identifier was loaded from the file or added
// earlier in this run.
func (s *Store) Seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add records the identifier in memory only. Commit persists it later.
func (s *Store) Add(id string) {
	s.ids[id] = struct{}{}
}

// Len returns the number of known identifiers.
func (s *Store) Len() int {
	return len(s.ids)
}

// Commit appends the identifiers to the backing file, one per line, in the
// given order. The write is best-effort: a failure is logged and swallowed,
// leaving those identifiers at risk of re-collection on the next run.
func (s *Store) Commit(ids []string) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Warn("could not open id file for append", "path", s.path, "error", err)
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			s.logger.Warn("could not append ids", "path", s.path, "error", err)
			return
		}
	}
	if err := w.Flush(); err != nil {
		s.logger.Warn("could not flush id file", "path", s.path, "error", err)
	}
}
