package ingestion

import (
	"sync"
	"time"
)

// RollingStats tracks the process-wide, rolling service-level counters:
// totalIngestions, totalRecordsProcessed, totalErrors, and an arithmetic
// mean of processing time over completed runs. Updates happen from each
// run's finalizer and must be atomic — guarded by a single mutex rather
// than separate atomics since the average update reads and writes two
// fields together.
type RollingStats struct {
	mu sync.Mutex

	totalIngestions       int64
	totalRecordsProcessed int64
	totalErrors           int64
	averageProcessingTime time.Duration
}

func NewRollingStats() *RollingStats {
	return &RollingStats{}
}

// Record folds one completed run's result into the running averages.
func (s *RollingStats) Record(recordsProcessed int, failed int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.totalIngestions
	s.averageProcessingTime = time.Duration((int64(s.averageProcessingTime)*n + int64(duration)) / (n + 1))
	s.totalIngestions = n + 1
	s.totalRecordsProcessed += int64(recordsProcessed)
	s.totalErrors += int64(failed)
}

type Snapshot struct {
	TotalIngestions       int64
	TotalRecordsProcessed int64
	TotalErrors           int64
	AverageProcessingTime time.Duration
}

func (s *RollingStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TotalIngestions:       s.totalIngestions,
		TotalRecordsProcessed: s.totalRecordsProcessed,
		TotalErrors:           s.totalErrors,
		AverageProcessingTime: s.averageProcessingTime,
	}
}
