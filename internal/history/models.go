// Package history implements the paginated read-only views over run
// logs and alert logs consumed by the operational HTTP endpoints.
package history

import "time"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination echoes the window the caller asked for plus the total
// count under the same filter, so a client can compute further pages.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// RunRow is one ingestion_runs record as surfaced to readers.
type RunRow struct {
	ID              int64      `json:"id"`
	SourceType      string     `json:"sourceType"`
	StartedAt       time.Time  `json:"startedAt"`
	FinishedAt      *time.Time `json:"finishedAt"`
	RecordsFetched  int        `json:"recordsFetched"`
	RecordsInserted int        `json:"recordsInserted"`
	RecordsUpdated  int        `json:"recordsUpdated"`
	RecordsSkipped  int        `json:"recordsSkipped"`
	RecordsFailed   int        `json:"recordsFailed"`
	Error           *string    `json:"error"`
}

// AlertLogRow is one alert_logs record joined with display fields from
// its rule and the record that triggered it.
type AlertLogRow struct {
	ID              int64     `json:"id"`
	AlertRuleID     int64     `json:"alertRuleId"`
	UserID          int64     `json:"userId"`
	RecordID        int64     `json:"recordId"`
	RecordSourceKey string    `json:"recordSourceKey"`
	ActionType      string    `json:"actionType"`
	TriggeredAt     time.Time `json:"triggeredAt"`
}

// AlertLogFilter narrows the alert-log read. Zero values wildcard their
// field; ActionType must be "insert" or "update" when non-empty.
type AlertLogFilter struct {
	AlertRuleID int64
	UserID      int64
	ActionType  string
}

// clampLimit enforces the 1..MaxLimit window, defaulting non-positive
// values to DefaultLimit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
