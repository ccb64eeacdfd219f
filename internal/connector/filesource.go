package connector

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/regwatch/regwatch/internal/record"
)

// fileRecord is the newline-delimited JSON shape filesource reads. It
// carries record.Record's canonical fields (not the storage metadata
// such as ID or ContentHash); RawJSON is not read from a field but is
// reconstructed from the line itself so the original payload survives
// verbatim even if this struct's field set ever lags the source.
type fileRecord struct {
	SourceKey      string `json:"source_key"`
	PublishedAt    string `json:"published_at"`
	Title          string `json:"title"`
	EntityNameRaw  string `json:"entity_name_raw"`
	EntityNameNorm string `json:"entity_name_norm"`
	Region         string `json:"region"`
	RecordID       string `json:"record_id"`
	Status         string `json:"status"`
	DocumentURL    string `json:"document_url"`
}

// FileSource is a reference Connector reading two newline-delimited
// JSON files standing in for a real bulk dataset and recent feed.
type FileSource struct {
	bulkPath   string
	recentPath string
}

func NewFileSource(bulkPath, recentPath string) *FileSource {
	return &FileSource{bulkPath: bulkPath, recentPath: recentPath}
}

func (f *FileSource) FetchBulk(ctx context.Context) ([]record.Record, error) {
	return readRecords(f.bulkPath)
}

// FetchRecent reads every line in the recent file; hours is informational
// only here, since the engine applies the 72-hour cutoff itself.
func (f *FileSource) FetchRecent(ctx context.Context, hours int) ([]record.Record, error) {
	return readRecords(f.recentPath)
}

func readRecords(path string) ([]record.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var records []record.Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var fr fileRecord
		if err := json.Unmarshal([]byte(line), &fr); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid json: %w", path, lineNo, err)
		}

		records = append(records, record.Record{
			SourceKey:      fr.SourceKey,
			PublishedAt:    fr.PublishedAt,
			Title:          fr.Title,
			EntityNameRaw:  fr.EntityNameRaw,
			EntityNameNorm: fr.EntityNameNorm,
			Region:         fr.Region,
			RecordID:       fr.RecordID,
			Status:         fr.Status,
			DocumentURL:    fr.DocumentURL,
			RawJSON:        json.RawMessage(append([]byte(nil), line...)),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return records, nil
}
