package domain

import "time"

// CycleStats holds statistics about one collection cycle.
type CycleStats struct {
	Terms      int
	Candidates int
	New        int
	Skipped    int
	Errors     int
	Published  int
	BatchFile  string
	Duration   time.Duration
}
