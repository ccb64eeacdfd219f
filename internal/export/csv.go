// Package export serializes the record catalog to CSV for GET
// /api/export/csv. It has no business logic: given rows, it writes a
// header and one line per row in a fixed column order.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/regwatch/regwatch/internal/catalog"
)

var columns = []string{
	"id", "source_key", "published_at", "title", "entity_name_raw", "entity_name_norm",
	"region", "record_id", "status", "document_url", "content_hash", "last_source_type",
	"created_at", "updated_at",
}

// WriteRecordsCSV streams rows to w as CSV, flushing at the end.
func WriteRecordsCSV(w io.Writer, rows []catalog.RecordRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return err
	}

	for _, row := range rows {
		documentURL := ""
		if row.DocumentURL != nil {
			documentURL = *row.DocumentURL
		}

		record := []string{
			strconv.FormatInt(row.ID, 10),
			row.SourceKey,
			row.PublishedAt,
			row.Title,
			row.EntityNameRaw,
			row.EntityNameNorm,
			row.Region,
			row.RecordIDExt,
			row.Status,
			documentURL,
			row.ContentHash,
			row.LastSourceType,
			row.CreatedAt.Format(time.RFC3339),
			row.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
