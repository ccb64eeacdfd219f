package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/regwatch/regwatch/internal/constants"
	"github.com/regwatch/regwatch/internal/storage"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// Reader serves GET /api/records and the CSV export, always against the
// gateway's pool handle — these are operational views, not part of any
// write transaction.
type Reader struct {
	gateway *storage.Gateway
}

func NewReader(gateway *storage.Gateway) *Reader {
	return &Reader{gateway: gateway}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultLimit
	}
	if limit > constants.MaxLimit {
		return constants.MaxLimit
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func buildWhere(filter Filter, args []interface{}) (string, []interface{}) {
	var conditions []string

	if filter.EntityNameNorm != "" {
		args = append(args, filter.EntityNameNorm)
		conditions = append(conditions, fmt.Sprintf("entity_name_norm = $%d", len(args)))
	}
	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.SourceKey != "" {
		args = append(args, filter.SourceKey)
		conditions = append(conditions, fmt.Sprintf("source_key = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

// List returns records newest-updated-first under filter, paginated.
func (r *Reader) List(ctx context.Context, filter Filter, limit, offset int) ([]RecordRow, Pagination, error) {
	limit = clampLimit(limit)
	offset = clampOffset(offset)
	h := r.gateway.Handle()

	where, args := buildWhere(filter, nil)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM records %s`, where)
	if err := h.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}

	limitArgs := append(append([]interface{}{}, args...), limit, offset)
	selectQuery := fmt.Sprintf(`
		SELECT id, source_key, published_at, title, entity_name_raw, entity_name_norm, region,
		       record_id, status, document_url, content_hash, last_source_type, created_at, updated_at
		FROM records
		%s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := h.QueryContext(ctx, selectQuery, limitArgs...)
	if err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	defer rows.Close()

	var result []RecordRow
	for rows.Next() {
		var row RecordRow
		if err := rows.Scan(&row.ID, &row.SourceKey, &row.PublishedAt, &row.Title, &row.EntityNameRaw,
			&row.EntityNameNorm, &row.Region, &row.RecordIDExt, &row.Status, &row.DocumentURL,
			&row.ContentHash, &row.LastSourceType, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, Pagination{}, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
		}
		result = append(result, row)
	}

	return result, Pagination{Limit: limit, Offset: offset, Total: total}, nil
}

// ListAll returns every record matching filter with no page cap, for
// the CSV export. The database, not the HTTP layer, still bounds result
// size in practice via the same filter predicates.
func (r *Reader) ListAll(ctx context.Context, filter Filter) ([]RecordRow, error) {
	h := r.gateway.Handle()
	where, args := buildWhere(filter, nil)

	query := fmt.Sprintf(`
		SELECT id, source_key, published_at, title, entity_name_raw, entity_name_norm, region,
		       record_id, status, document_url, content_hash, last_source_type, created_at, updated_at
		FROM records
		%s
		ORDER BY updated_at DESC
	`, where)

	rows, err := h.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	defer rows.Close()

	var result []RecordRow
	for rows.Next() {
		var row RecordRow
		if err := rows.Scan(&row.ID, &row.SourceKey, &row.PublishedAt, &row.Title, &row.EntityNameRaw,
			&row.EntityNameNorm, &row.Region, &row.RecordIDExt, &row.Status, &row.DocumentURL,
			&row.ContentHash, &row.LastSourceType, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
		}
		result = append(result, row)
	}

	return result, nil
}
