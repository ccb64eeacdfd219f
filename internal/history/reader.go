package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/regwatch/regwatch/internal/storage"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// Reader serves the run-log and alert-log endpoints. Reads always go
// through the gateway's pool handle — these are operational views, not
// part of any write transaction.
type Reader struct {
	gateway *storage.Gateway
}

func NewReader(gateway *storage.Gateway) *Reader {
	return &Reader{gateway: gateway}
}

// RunHistory returns ingestion runs newest-first.
func (r *Reader) RunHistory(ctx context.Context, limit, offset int) ([]RunRow, Pagination, error) {
	limit = clampLimit(limit)
	offset = clampOffset(offset)
	h := r.gateway.Handle()

	var total int
	if err := h.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingestion_runs`).Scan(&total); err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}

	rows, err := h.QueryContext(ctx, `
		SELECT id, source_type, started_at, finished_at, records_fetched, records_inserted, records_updated, records_skipped, records_failed, error
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var run RunRow
		if err := rows.Scan(&run.ID, &run.SourceType, &run.StartedAt, &run.FinishedAt,
			&run.RecordsFetched, &run.RecordsInserted, &run.RecordsUpdated, &run.RecordsSkipped, &run.RecordsFailed, &run.Error); err != nil {
			return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
		}
		result = append(result, run)
	}

	return result, Pagination{Limit: limit, Offset: offset, Total: total}, nil
}

// AlertLogs returns alert-log entries newest-first under the given
// filter, joined to alert_rules for user_id filtering and to records
// for the display source_key.
func (r *Reader) AlertLogs(ctx context.Context, filter AlertLogFilter, limit, offset int) ([]AlertLogRow, Pagination, error) {
	limit = clampLimit(limit)
	offset = clampOffset(offset)
	h := r.gateway.Handle()

	var conditions []string
	var args []interface{}

	if filter.AlertRuleID != 0 {
		args = append(args, filter.AlertRuleID)
		conditions = append(conditions, fmt.Sprintf("al.alert_rule_id = $%d", len(args)))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("ar.user_id = $%d", len(args)))
	}
	if filter.ActionType != "" {
		args = append(args, filter.ActionType)
		conditions = append(conditions, fmt.Sprintf("al.action_type = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM alert_logs al
		JOIN alert_rules ar ON ar.id = al.alert_rule_id
		%s
	`, where)

	var total int
	if err := h.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}

	limitArgs := append(append([]interface{}{}, args...), limit, offset)
	selectQuery := fmt.Sprintf(`
		SELECT al.id, al.alert_rule_id, ar.user_id, al.record_id, r.source_key, al.action_type, al.triggered_at
		FROM alert_logs al
		JOIN alert_rules ar ON ar.id = al.alert_rule_id
		JOIN records r ON r.id = al.record_id
		%s
		ORDER BY al.triggered_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := h.QueryContext(ctx, selectQuery, limitArgs...)
	if err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	defer rows.Close()

	var result []AlertLogRow
	for rows.Next() {
		var log AlertLogRow
		if err := rows.Scan(&log.ID, &log.AlertRuleID, &log.UserID, &log.RecordID, &log.RecordSourceKey, &log.ActionType, &log.TriggeredAt); err != nil {
			return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
		}
		result = append(result, log)
	}

	return result, Pagination{Limit: limit, Offset: offset, Total: total}, nil
}
