package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/regwatch/regwatch/internal/alerts"
	"github.com/regwatch/regwatch/internal/constants"
	"github.com/regwatch/regwatch/internal/logger"
	"github.com/regwatch/regwatch/internal/record"
	"github.com/regwatch/regwatch/internal/storage"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
	"github.com/regwatch/regwatch/pkg/metrics"
)

// Engine is the injectable ingestion core: validation, time filtering,
// the per-record upsert routine, and the transactional run lifecycle.
// Constructed once at startup and passed down; it carries no
// module-level mutable state beyond the rolling stats it owns.
type Engine struct {
	gateway *storage.Gateway
	repo    *Repository
	alerts  *alerts.Service
	stats   *RollingStats
	logger  logger.Logger
}

func NewEngine(gateway *storage.Gateway, repo *Repository, alertService *alerts.Service, log logger.Logger) *Engine {
	return &Engine{
		gateway: gateway,
		repo:    repo,
		alerts:  alertService,
		stats:   NewRollingStats(),
		logger:  log,
	}
}

func (e *Engine) Stats() Snapshot {
	return e.stats.Snapshot()
}

// IngestRecords validates its preconditions before any side effect,
// optionally time-filters a "recent" feed, then runs the whole batch
// inside one transaction: insert the run row, walk records in batches
// calling the upsert routine, finalize the run row, commit.
func (e *Engine) IngestRecords(ctx context.Context, records []record.Record, sourceType record.SourceType, opts Options) (Result, error) {
	start := time.Now()

	if len(records) == 0 {
		return Result{}, pkgerrors.ErrValidation.WithDetail("message", "records must be a non-empty sequence")
	}
	if sourceType != record.SourceBulk && sourceType != record.SourceRecent {
		return Result{}, pkgerrors.ErrValidation.WithDetail("message", "sourceType must be bulk or recent")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = constants.DefaultBatchSize
	}

	filtered := records
	if sourceType == record.SourceRecent {
		filtered = filterRecent(records, time.Now())
	}

	if opts.Validate {
		for i, rec := range filtered {
			if err := record.Validate(i, rec); err != nil {
				return Result{}, pkgerrors.ErrValidation.WithCause(err)
			}
		}
	}

	var runID int64
	var inserted, updated, skipped, failed int
	var failureReasons []string

	txErr := e.gateway.Transaction(ctx, func(ctx context.Context, h storage.Handle) error {
		id, err := e.repo.InsertRun(ctx, h, sourceType, len(filtered))
		if err != nil {
			return err
		}
		runID = id

		for start := 0; start < len(filtered); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(filtered) {
				end = len(filtered)
			}

			for recordIndex, rec := range filtered[start:end] {
				savepoint := fmt.Sprintf("upsert_%d_%d", start, recordIndex)
				if _, err := h.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
					return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
				}

				outcome, err := e.upsert(ctx, h, rec, sourceType)
				if err != nil {
					// A connection-level fault means the transaction
					// itself cannot continue: propagate and let it
					// abort. Anything else (a constraint violation, a
					// data problem) is isolated with ROLLBACK TO
					// SAVEPOINT so the loop can keep going per record.
					if pkgerrors.IsRetryable(err) {
						return err
					}
					if _, rbErr := h.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
						return pkgerrors.Wrap(rbErr, pkgerrors.ErrStorage)
					}
					failed++
					failureReasons = append(failureReasons, fmt.Sprintf("%s: %v", rec.SourceKey, err))
					continue
				}

				if _, err := h.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
					return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
				}

				switch outcome {
				case outcomeInserted:
					inserted++
				case outcomeUpdated:
					updated++
				case outcomeSkipped:
					skipped++
				}
			}
		}

		var errSummary *string
		if failed > 0 {
			summary := strings.Join(failureReasons, "; ")
			errSummary = &summary
		}
		return e.repo.FinalizeRun(ctx, h, runID, inserted, updated, skipped, failed, errSummary)
	})

	duration := time.Since(start)

	if txErr != nil {
		e.finalizeAfterRollback(ctx, runID, txErr)
		e.stats.Record(len(filtered), len(filtered), duration)
		metrics.IncIngestionRun(string(sourceType), "error")
		metrics.ObserveIngestionRunDuration(string(sourceType), duration)
		return Result{}, txErr
	}

	e.stats.Record(len(filtered), failed, duration)
	metrics.IncIngestionRun(string(sourceType), "ok")
	metrics.ObserveIngestionRunDuration(string(sourceType), duration)
	metrics.AddIngestionRecords(string(sourceType), "inserted", inserted)
	metrics.AddIngestionRecords(string(sourceType), "updated", updated)
	metrics.AddIngestionRecords(string(sourceType), "skipped", skipped)
	metrics.AddIngestionRecords(string(sourceType), "failed", failed)

	return Result{
		RunID:           runID,
		SourceType:      sourceType,
		RecordsFetched:  len(filtered),
		RecordsInserted: inserted,
		RecordsUpdated:  updated,
		RecordsSkipped:  skipped,
		RecordsFailed:   failed,
		ProcessingTime:  duration,
	}, nil
}

// finalizeAfterRollback is the best-effort write spec.md §4.4 calls for
// when the transaction itself aborts after the run row was inserted: it
// runs outside the failed transaction and may itself fail, in which
// case only the in-memory error counter moves.
func (e *Engine) finalizeAfterRollback(ctx context.Context, runID int64, cause error) {
	if runID == 0 {
		return
	}
	summary := cause.Error()
	if err := e.repo.FinalizeRun(ctx, e.gateway.Handle(), runID, 0, 0, 0, 0, &summary); err != nil {
		e.logger.Errorw("best-effort run finalization after rollback failed", "run_id", runID, "error", err)
	}
}

type upsertOutcome int

const (
	outcomeInserted upsertOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

// upsert is the per-record routine: insert-if-absent, update-if-changed
// gated by source precedence, or skip-if-identical.
func (e *Engine) upsert(ctx context.Context, h storage.Handle, rec record.Record, sourceType record.SourceType) (upsertOutcome, error) {
	hash := record.Fingerprint(rec)

	existing, found, err := e.repo.FindBySourceKey(ctx, h, rec.SourceKey)
	if err != nil {
		return 0, err
	}

	if !found {
		id, err := e.repo.InsertRecord(ctx, h, rec, hash, sourceType)
		if err != nil {
			return 0, err
		}
		if _, err := e.alerts.Fanout(ctx, h, id, constants.ActionTypeInsert); err != nil {
			return 0, err
		}
		return outcomeInserted, nil
	}

	if sourceType == record.SourceRecent && existing.LastSourceType == record.SourceBulk {
		return outcomeSkipped, nil
	}

	if existing.ContentHash != hash {
		if err := e.repo.UpdateRecord(ctx, h, existing.ID, rec, hash, sourceType); err != nil {
			return 0, err
		}
		if _, err := e.alerts.Fanout(ctx, h, existing.ID, constants.ActionTypeUpdate); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}

	return outcomeSkipped, nil
}

// filterRecent drops records whose published_at is older than the
// 72-hour window or fails to parse. Bulk records are never filtered.
func filterRecent(records []record.Record, now time.Time) []record.Record {
	cutoff := now.Add(-constants.RecentWindow)
	var kept []record.Record
	for _, rec := range records {
		published, err := time.Parse(time.RFC3339, rec.PublishedAt)
		if err != nil || published.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
