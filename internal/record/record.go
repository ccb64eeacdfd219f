// Package record defines the canonical regulatory record shape and the
// content fingerprint used to detect changes between ingestion runs.
package record

import (
	"encoding/json"
	"strings"
	"time"
)

// SourceType identifies which feed last wrote a record.
type SourceType string

const (
	SourceBulk   SourceType = "bulk"
	SourceRecent SourceType = "recent"
)

// Record is the fixed-shape canonical item produced by connectors and
// consumed by the ingestion engine. RawJSON is the only opaque field.
// The canonical fields from SourceKey through DocumentURL participate in
// the content fingerprint; ID, ContentHash, LastSourceType, CreatedAt and
// UpdatedAt are storage metadata and do not.
type Record struct {
	ID             int64
	SourceKey      string
	PublishedAt    string
	Title          string
	EntityNameRaw  string
	EntityNameNorm string
	Region         string
	RecordID       string
	Status         string
	DocumentURL    string
	RawJSON        json.RawMessage
	ContentHash    string
	LastSourceType SourceType
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Normalize lowercases and trims outer whitespace from the raw entity
// name, per the single normalization rule this system specifies.
func Normalize(entityNameRaw string) string {
	return strings.ToLower(strings.TrimSpace(entityNameRaw))
}
