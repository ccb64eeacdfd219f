package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSourceFetchBulkParsesRecords(t *testing.T) {
	path := writeLines(t, `{"source_key":"TX-001","published_at":"2024-01-10T00:00:00Z","title":"A","entity_name_raw":"Acme Energy LLC","entity_name_norm":"acme energy llc","region":"TX","record_id":"R1","status":"open","document_url":"u"}`)

	src := NewFileSource(path, path)
	records, err := src.FetchBulk(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "TX-001", records[0].SourceKey)
	assert.NotEmpty(t, records[0].RawJSON)
}

func TestFileSourceSkipsBlankLines(t *testing.T) {
	path := writeLines(t, "", `{"source_key":"TX-001","published_at":"2024-01-10T00:00:00Z","title":"A","entity_name_raw":"a","entity_name_norm":"a","region":"TX","record_id":"R1","status":"open"}`, "")

	src := NewFileSource(path, path)
	records, err := src.FetchBulk(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileSourceRejectsInvalidJSON(t *testing.T) {
	path := writeLines(t, "not json")

	src := NewFileSource(path, path)
	_, err := src.FetchBulk(context.Background())
	assert.Error(t, err)
}
