package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/alerts"
	"github.com/regwatch/regwatch/internal/ingestion"
	"github.com/regwatch/regwatch/internal/record"
	"github.com/regwatch/regwatch/internal/storage"
	"github.com/regwatch/regwatch/pkg/cel"
)

// buildTestEngine wires a gateway, alert service, and ingestion engine
// against the given infra's database exactly as cmd/ingestion-service's
// app.go does at startup, minus HTTP/tracing concerns.
func buildTestEngine(t *testing.T, infra *TestInfra) *ingestion.Engine {
	t.Helper()

	celEvaluator, err := cel.NewEvaluator()
	require.NoError(t, err)

	gateway := storage.NewGateway(infra.PostgresDB, createTestLogger())
	alertService := alerts.NewService(gateway, alerts.NewRepository(), alerts.NewRuleCache(), celEvaluator, createTestLogger())
	return ingestion.NewEngine(gateway, ingestion.NewRepository(), alertService, createTestLogger())
}

func queryRecordRow(t *testing.T, db *sql.DB, sourceKey string) (contentHash, lastSourceType string) {
	t.Helper()
	err := db.QueryRowContext(context.Background(), `
		SELECT content_hash, last_source_type FROM records WHERE source_key = $1
	`, sourceKey).Scan(&contentHash, &lastSourceType)
	require.NoError(t, err)
	return
}

func TestIngestionEngine_InsertsNewRecord(t *testing.T) {
	infra := SetupTestInfra(t)
	engine := buildTestEngine(t, infra)
	ctx := context.Background()

	rec := createTestRecord("src-insert-1", "acme corp", "US")

	result, err := engine.IngestRecords(ctx, []record.Record{rec}, record.SourceBulk, ingestion.Options{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsInserted)
	assert.Equal(t, 0, result.RecordsUpdated)
	assert.Equal(t, 0, result.RecordsSkipped)
	assert.Equal(t, 0, result.RecordsFailed)

	hash, lastSourceType := queryRecordRow(t, infra.PostgresDB, "src-insert-1")
	assert.Equal(t, record.Fingerprint(rec), hash)
	assert.Equal(t, string(record.SourceBulk), lastSourceType)
}

func TestIngestionEngine_IdempotentReingestIsSkipped(t *testing.T) {
	infra := SetupTestInfra(t)
	engine := buildTestEngine(t, infra)
	ctx := context.Background()

	rec := createTestRecord("src-idempotent-1", "acme corp", "US")

	_, err := engine.IngestRecords(ctx, []record.Record{rec}, record.SourceBulk, ingestion.Options{Validate: true})
	require.NoError(t, err)

	result, err := engine.IngestRecords(ctx, []record.Record{rec}, record.SourceBulk, ingestion.Options{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.RecordsInserted)
	assert.Equal(t, 0, result.RecordsUpdated)
	assert.Equal(t, 1, result.RecordsSkipped)

	var recordsSkipped int
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT records_skipped FROM ingestion_runs WHERE id = $1`, result.RunID).Scan(&recordsSkipped)
	require.NoError(t, err)
	assert.Equal(t, 1, recordsSkipped)
}

func TestIngestionEngine_ContentChangeIsUpdated(t *testing.T) {
	infra := SetupTestInfra(t)
	engine := buildTestEngine(t, infra)
	ctx := context.Background()

	original := createTestRecord("src-update-1", "acme corp", "US")
	_, err := engine.IngestRecords(ctx, []record.Record{original}, record.SourceBulk, ingestion.Options{Validate: true})
	require.NoError(t, err)

	changed := original
	changed.Title = "a materially different title"

	result, err := engine.IngestRecords(ctx, []record.Record{changed}, record.SourceBulk, ingestion.Options{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsUpdated)
	assert.Equal(t, 0, result.RecordsInserted)

	hash, _ := queryRecordRow(t, infra.PostgresDB, "src-update-1")
	assert.Equal(t, record.Fingerprint(changed), hash)
}

// TestIngestionEngine_RecentNeverOverwritesBulk exercises the source
// precedence rule: a bulk row is the master of record, so a later
// "recent" upsert with different content must be skipped, not applied.
func TestIngestionEngine_RecentNeverOverwritesBulk(t *testing.T) {
	infra := SetupTestInfra(t)
	engine := buildTestEngine(t, infra)
	ctx := context.Background()

	bulkRecord := createTestRecord("src-precedence-1", "acme corp", "US")
	_, err := engine.IngestRecords(ctx, []record.Record{bulkRecord}, record.SourceBulk, ingestion.Options{Validate: true})
	require.NoError(t, err)

	recentRecord := bulkRecord
	recentRecord.Title = "a conflicting recent-feed title"

	result, err := engine.IngestRecords(ctx, []record.Record{recentRecord}, record.SourceRecent, ingestion.Options{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsSkipped)
	assert.Equal(t, 0, result.RecordsUpdated)

	hash, lastSourceType := queryRecordRow(t, infra.PostgresDB, "src-precedence-1")
	assert.Equal(t, record.Fingerprint(bulkRecord), hash)
	assert.Equal(t, string(record.SourceBulk), lastSourceType)
}

// TestIngestionEngine_RecentAppliesOverPriorRecent confirms the skip
// rule is scoped to "bulk is master" — a later recent update over an
// existing recent row still applies normally.
func TestIngestionEngine_RecentAppliesOverPriorRecent(t *testing.T) {
	infra := SetupTestInfra(t)
	engine := buildTestEngine(t, infra)
	ctx := context.Background()

	first := createTestRecord("src-recent-chain-1", "acme corp", "US")
	_, err := engine.IngestRecords(ctx, []record.Record{first}, record.SourceRecent, ingestion.Options{Validate: true})
	require.NoError(t, err)

	second := first
	second.Title = "an updated recent-feed title"

	result, err := engine.IngestRecords(ctx, []record.Record{second}, record.SourceRecent, ingestion.Options{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsUpdated)

	hash, lastSourceType := queryRecordRow(t, infra.PostgresDB, "src-recent-chain-1")
	assert.Equal(t, record.Fingerprint(second), hash)
	assert.Equal(t, string(record.SourceRecent), lastSourceType)
}

func TestIngestionEngine_InvalidRecordFailsBeforeAnyWrite(t *testing.T) {
	infra := SetupTestInfra(t)
	engine := buildTestEngine(t, infra)
	ctx := context.Background()

	valid := createTestRecord("src-valid-1", "acme corp", "US")
	invalid := createTestRecord("src-invalid-1", "acme corp", "US")
	invalid.Region = "usa"

	_, err := engine.IngestRecords(ctx, []record.Record{valid, invalid}, record.SourceBulk, ingestion.Options{Validate: true})
	require.Error(t, err)

	var count int
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE source_key = $1`, "src-valid-1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no row should be written when validation fails before the transaction starts")
}
