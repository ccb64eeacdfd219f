package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/regwatch/regwatch/internal/record"
)

func TestFilterRecentDropsOldAndUnparseable(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	records := []record.Record{
		{SourceKey: "fresh", PublishedAt: now.Add(-10 * time.Hour).Format(time.RFC3339)},
		{SourceKey: "stale", PublishedAt: now.Add(-100 * time.Hour).Format(time.RFC3339)},
		{SourceKey: "garbage", PublishedAt: "not-a-date"},
	}

	kept := filterRecent(records, now)
	assert.Len(t, kept, 1)
	assert.Equal(t, "fresh", kept[0].SourceKey)
}

func TestFilterRecentKeepsExactlyAtBoundary(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	records := []record.Record{
		{SourceKey: "boundary", PublishedAt: now.Add(-72 * time.Hour).Format(time.RFC3339)},
	}

	kept := filterRecent(records, now)
	assert.Len(t, kept, 1)
}
