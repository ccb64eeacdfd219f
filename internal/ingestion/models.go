// Package ingestion implements the engine: validation, time filtering,
// the per-record upsert routine with source precedence, the
// transactional run lifecycle, and process-wide rolling metrics.
package ingestion

import (
	"time"

	"github.com/regwatch/regwatch/internal/record"
)

// Run mirrors one ingestion_runs row.
type Run struct {
	ID              int64
	SourceType      record.SourceType
	StartedAt       time.Time
	FinishedAt      *time.Time
	RecordsFetched  int
	RecordsInserted int
	RecordsUpdated  int
	RecordsSkipped  int
	RecordsFailed   int
	Error           *string
}

// Options configures a single ingestRecords invocation.
type Options struct {
	BatchSize int
	Validate  bool
}

func DefaultOptions() Options {
	return Options{BatchSize: 100, Validate: true}
}

// Result is what ingestRecords returns to its caller — the public entry
// point never returns both a successful result and a failure; a
// partial-success run returns success with non-zero RecordsFailed.
type Result struct {
	RunID           int64             `json:"runId"`
	SourceType      record.SourceType `json:"sourceType"`
	RecordsFetched  int               `json:"recordsFetched"`
	RecordsInserted int               `json:"recordsInserted"`
	RecordsUpdated  int               `json:"recordsUpdated"`
	RecordsSkipped  int               `json:"recordsSkipped"`
	RecordsFailed   int               `json:"recordsFailed"`
	ProcessingTime  time.Duration     `json:"processingTimeNs"`
}
