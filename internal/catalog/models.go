// Package catalog serves the record query surface backing GET
// /api/records and the CSV export — read-only views over the records
// table, never the write path the ingestion engine owns.
package catalog

import (
	"time"

	"github.com/regwatch/regwatch/internal/history"
)

// RecordRow is the flat projection of a records row returned to API
// consumers.
type RecordRow struct {
	ID             int64     `json:"id"`
	SourceKey      string    `json:"sourceKey"`
	PublishedAt    string    `json:"publishedAt"`
	Title          string    `json:"title"`
	EntityNameRaw  string    `json:"entityNameRaw"`
	EntityNameNorm string    `json:"entityNameNorm"`
	Region         string    `json:"region"`
	RecordIDExt    string    `json:"recordId"`
	Status         string    `json:"status"`
	DocumentURL    *string   `json:"documentUrl"`
	ContentHash    string    `json:"contentHash"`
	LastSourceType string    `json:"lastSourceType"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Filter narrows a record listing by exact match on any non-empty field.
type Filter struct {
	EntityNameNorm string
	Region         string
	Status         string
	SourceKey      string
}

// Pagination is shared with the run-history/alert-log readers (spec.md §4.5).
type Pagination = history.Pagination
