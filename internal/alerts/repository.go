package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/regwatch/regwatch/internal/storage"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// Repository is the SQL layer for alert rules and logs. Every method
// takes an explicit storage.Handle so callers control whether it runs
// against the pool or inside an in-flight transaction — per the
// callback-driven transaction scope the quota check and fan-out rely on.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// GetUserPlan reads the plan the core needs for quota enforcement. The
// core never owns user rows beyond this single column.
func (r *Repository) GetUserPlan(ctx context.Context, h storage.Handle, userID int64) (string, error) {
	var plan string
	err := h.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = $1`, userID).Scan(&plan)
	if errors.Is(err, sql.ErrNoRows) {
		return "", pkgerrors.ErrNotFound.WithDetail("message", "user not found")
	}
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return plan, nil
}

// CountRules returns the current rule count for a user. Must be called
// on the same handle as the subsequent insert to avoid a TOCTOU gap.
func (r *Repository) CountRules(ctx context.Context, h storage.Handle, userID int64) (int, error) {
	var count int
	err := h.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_rules WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return count, nil
}

// Create inserts a rule, letting Postgres assign the bigserial id.
// Quota enforcement happens in the service layer before this is
// called, on the same handle.
func (r *Repository) Create(ctx context.Context, h storage.Handle, rule *AlertRule) error {
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}

	err := h.QueryRowContext(ctx, `
		INSERT INTO alert_rules (user_id, entity_name_norm, region, expression, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rule.UserID, rule.EntityNameNorm, rule.Region, rule.Expression, rule.CreatedAt).Scan(&rule.ID)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, h storage.Handle, id int64) (*AlertRule, error) {
	row := h.QueryRowContext(ctx, `
		SELECT id, user_id, entity_name_norm, region, expression, created_at
		FROM alert_rules WHERE id = $1
	`, id)

	var rule AlertRule
	err := row.Scan(&rule.ID, &rule.UserID, &rule.EntityNameNorm, &rule.Region, &rule.Expression, &rule.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithDetail("message", "alert rule not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return &rule, nil
}

func (r *Repository) Delete(ctx context.Context, h storage.Handle, id int64) error {
	res, err := h.ExecContext(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	if rows == 0 {
		return pkgerrors.ErrNotFound.WithDetail("message", "alert rule not found")
	}
	return nil
}

// ListByUser returns a user's rules ordered by creation time, used both
// to populate the cache and to serve the list endpoint directly.
func (r *Repository) ListByUser(ctx context.Context, h storage.Handle, userID int64) ([]AlertRule, error) {
	rows, err := h.QueryContext(ctx, `
		SELECT id, user_id, entity_name_norm, region, expression, created_at
		FROM alert_rules WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	defer rows.Close()

	var result []AlertRule
	for rows.Next() {
		var rule AlertRule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.EntityNameNorm, &rule.Region, &rule.Expression, &rule.CreatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
		}
		result = append(result, rule)
	}
	return result, nil
}

// MatchingRules selects rules whose literal filters match the given
// entity/region (null filter = wildcard). The CEL predicate, if any, is
// evaluated by the caller after this purely-SQL narrowing.
func (r *Repository) MatchingRules(ctx context.Context, h storage.Handle, entityNameNorm, region string) ([]AlertRule, error) {
	rows, err := h.QueryContext(ctx, `
		SELECT id, user_id, entity_name_norm, region, expression, created_at
		FROM alert_rules
		WHERE (entity_name_norm IS NULL OR entity_name_norm = $1)
		  AND (region IS NULL OR region = $2)
	`, entityNameNorm, region)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	defer rows.Close()

	var result []AlertRule
	for rows.Next() {
		var rule AlertRule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.EntityNameNorm, &rule.Region, &rule.Expression, &rule.CreatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
		}
		result = append(result, rule)
	}
	return result, nil
}

// RecordFields is the minimal projection fan-out needs to match rules
// against the record just upserted.
type RecordFields struct {
	EntityNameNorm string
	Region         string
	Status         string
	SourceKey      string
	RecordIDExt    string
}

func (r *Repository) GetRecordFields(ctx context.Context, h storage.Handle, recordID int64) (*RecordFields, bool, error) {
	row := h.QueryRowContext(ctx, `
		SELECT entity_name_norm, region, status, source_key, record_id
		FROM records WHERE id = $1
	`, recordID)

	var f RecordFields
	err := row.Scan(&f.EntityNameNorm, &f.Region, &f.Status, &f.SourceKey, &f.RecordIDExt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return &f, true, nil
}

// AppendLogs writes one alert_logs row per matched rule in a single
// multi-row insert, atomic with the triggering upsert.
func (r *Repository) AppendLogs(ctx context.Context, h storage.Handle, recordID int64, actionType string, ruleIDs []int64) error {
	if len(ruleIDs) == 0 {
		return nil
	}

	now := time.Now()
	var sb strings.Builder
	sb.WriteString(`INSERT INTO alert_logs (alert_rule_id, record_id, action_type, triggered_at) VALUES `)
	args := make([]interface{}, 0, len(ruleIDs)*4)

	for i, ruleID := range ruleIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, ruleID, recordID, actionType, now)
	}

	_, err := h.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrStorage)
	}
	return nil
}
