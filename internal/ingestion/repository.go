package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/regwatch/regwatch/internal/record"
	"github.com/regwatch/regwatch/internal/storage"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// wrapUpsertErr classifies a per-record upsert failure. A constraint
// violation, serialization failure, or deadlock names a problem with
// this one statement — the engine rolls back to its savepoint and
// counts the record as failed without aborting the run. Anything else
// (connection loss, driver fault) keeps the default retryable storage
// classification, which the engine treats as transaction-fatal.
func wrapUpsertErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23", "40":
			return pkgerrors.Wrap(err, pkgerrors.ErrStorage).AsFatal()
		}
	}
	return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
}

// Repository is the SQL layer backing the engine. Every method takes an
// explicit storage.Handle — the engine decides the transaction scope,
// never the repository.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// InsertRun starts a run row and returns its generated id.
func (r *Repository) InsertRun(ctx context.Context, h storage.Handle, sourceType record.SourceType, recordsFetched int) (int64, error) {
	var id int64
	err := h.QueryRowContext(ctx, `
		INSERT INTO ingestion_runs (source_type, started_at, records_fetched, records_inserted, records_updated, records_failed)
		VALUES ($1, $2, $3, 0, 0, 0)
		RETURNING id
	`, sourceType, time.Now(), recordsFetched).Scan(&id)
	if err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return id, nil
}

// FinalizeRun writes the terminal counts. Used both for the commit-path
// finalization inside the run's own transaction and for the best-effort
// out-of-transaction update after a transaction-fatal rollback.
func (r *Repository) FinalizeRun(ctx context.Context, h storage.Handle, runID int64, inserted, updated, skipped, failed int, errSummary *string) error {
	_, err := h.ExecContext(ctx, `
		UPDATE ingestion_runs
		SET finished_at = $1, records_inserted = $2, records_updated = $3, records_skipped = $4, records_failed = $5, error = $6
		WHERE id = $7
	`, time.Now(), inserted, updated, skipped, failed, errSummary, runID)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return nil
}

// ExistingRecord is the narrow projection the upsert routine needs to
// decide insert/update/skip.
type ExistingRecord struct {
	ID             int64
	ContentHash    string
	LastSourceType record.SourceType
}

func (r *Repository) FindBySourceKey(ctx context.Context, h storage.Handle, sourceKey string) (*ExistingRecord, bool, error) {
	row := h.QueryRowContext(ctx, `
		SELECT id, content_hash, last_source_type FROM records WHERE source_key = $1
	`, sourceKey)

	var existing ExistingRecord
	err := row.Scan(&existing.ID, &existing.ContentHash, &existing.LastSourceType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return &existing, true, nil
}

// InsertRecord writes a brand-new row and returns its generated id.
func (r *Repository) InsertRecord(ctx context.Context, h storage.Handle, rec record.Record, hash string, sourceType record.SourceType) (int64, error) {
	var documentURL interface{}
	if rec.DocumentURL != "" {
		documentURL = rec.DocumentURL
	}

	var id int64
	now := time.Now()
	err := h.QueryRowContext(ctx, `
		INSERT INTO records (
			source_key, published_at, title, entity_name_raw, entity_name_norm,
			region, record_id, status, document_url, raw_json,
			content_hash, last_source_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING id
	`, rec.SourceKey, rec.PublishedAt, rec.Title, rec.EntityNameRaw, rec.EntityNameNorm,
		rec.Region, rec.RecordID, rec.Status, documentURL, []byte(rec.RawJSON),
		hash, sourceType, now).Scan(&id)
	if err != nil {
		return 0, wrapUpsertErr(err)
	}
	return id, nil
}

// UpdateRecord overwrites every canonical field on a content change.
func (r *Repository) UpdateRecord(ctx context.Context, h storage.Handle, id int64, rec record.Record, hash string, sourceType record.SourceType) error {
	var documentURL interface{}
	if rec.DocumentURL != "" {
		documentURL = rec.DocumentURL
	}

	_, err := h.ExecContext(ctx, `
		UPDATE records SET
			published_at = $1, title = $2, entity_name_raw = $3, entity_name_norm = $4,
			region = $5, record_id = $6, status = $7, document_url = $8, raw_json = $9,
			content_hash = $10, last_source_type = $11, updated_at = $12
		WHERE id = $13
	`, rec.PublishedAt, rec.Title, rec.EntityNameRaw, rec.EntityNameNorm,
		rec.Region, rec.RecordID, rec.Status, documentURL, []byte(rec.RawJSON),
		hash, sourceType, time.Now(), id)
	if err != nil {
		return wrapUpsertErr(err)
	}
	return nil
}
