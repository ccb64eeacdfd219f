package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/catalog"
)

func TestWriteRecordsCSVIncludesHeaderAndRows(t *testing.T) {
	url := "https://example.com/doc"
	rows := []catalog.RecordRow{
		{
			ID: 1, SourceKey: "TX-001", PublishedAt: "2024-01-10T00:00:00Z", Title: "A",
			EntityNameRaw: "Acme LLC", EntityNameNorm: "acme llc", Region: "TX",
			RecordIDExt: "R1", Status: "open", DocumentURL: &url, ContentHash: "abc123",
			LastSourceType: "bulk", CreatedAt: time.Unix(0, 0).UTC(), UpdatedAt: time.Unix(0, 0).UTC(),
		},
		{
			ID: 2, SourceKey: "TX-002", PublishedAt: "2024-01-11T00:00:00Z", Title: "B",
			EntityNameRaw: "Beta LLC", EntityNameNorm: "beta llc", Region: "TX",
			RecordIDExt: "R2", Status: "closed", DocumentURL: nil, ContentHash: "def456",
			LastSourceType: "recent", CreatedAt: time.Unix(0, 0).UTC(), UpdatedAt: time.Unix(0, 0).UTC(),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,source_key,published_at,title,entity_name_raw,entity_name_norm,region,record_id,status,document_url,content_hash,last_source_type,created_at,updated_at", lines[0])
	assert.Contains(t, lines[1], "TX-001")
	assert.Contains(t, lines[2], "TX-002")
	assert.NotContains(t, lines[2], "https://")
}

func TestWriteRecordsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, nil))
	assert.Equal(t, "id,source_key,published_at,title,entity_name_raw,entity_name_norm,region,record_id,status,document_url,content_hash,last_source_type,created_at,updated_at\n", buf.String())
}
