package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/logger"
	"github.com/regwatch/regwatch/internal/record"
)

const timestampDelay = 10 * time.Millisecond

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

// insertTestUser inserts a users row and returns its generated id, so
// alert-rule tests have a real plan to enforce quota against.
func insertTestUser(t *testing.T, db *sql.DB, email, plan string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO users (email, plan) VALUES ($1, $2) RETURNING id
	`, email, plan).Scan(&id)
	require.NoError(t, err)
	return id
}

// createTestRecord builds a canonical record with every required field
// populated, ready to pass validation, keyed by sourceKey.
func createTestRecord(sourceKey, entityNameNorm, region string) record.Record {
	return record.Record{
		SourceKey:      sourceKey,
		PublishedAt:    time.Now().UTC().Format(time.RFC3339),
		Title:          "title for " + sourceKey,
		EntityNameRaw:  entityNameNorm,
		EntityNameNorm: entityNameNorm,
		Region:         region,
		RecordID:       sourceKey,
		Status:         "active",
		RawJSON:        json.RawMessage(`{}`),
	}
}

// insertTestRecord writes a record row directly (bypassing the engine)
// and returns its generated id, for alert fan-out tests that need an
// existing record to attach logs to.
func insertTestRecord(t *testing.T, db *sql.DB, sourceKey, entityNameNorm, region string) int64 {
	t.Helper()

	rec := createTestRecord(sourceKey, entityNameNorm, region)
	hash := record.Fingerprint(rec)

	var id int64
	now := time.Now()
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO records (
			source_key, published_at, title, entity_name_raw, entity_name_norm,
			region, record_id, status, document_url, raw_json,
			content_hash, last_source_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, $9, $10, $11, $12, $12)
		RETURNING id
	`, rec.SourceKey, rec.PublishedAt, rec.Title, rec.EntityNameRaw, rec.EntityNameNorm,
		rec.Region, rec.RecordID, rec.Status, []byte(rec.RawJSON),
		hash, record.SourceBulk, now).Scan(&id)
	require.NoError(t, err)
	return id
}
