package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/alerts"
	"github.com/regwatch/regwatch/internal/storage"
	"github.com/regwatch/regwatch/pkg/cel"
	pkgerrors "github.com/regwatch/regwatch/pkg/errors"
)

// buildTestAlertService wires a gateway and alert service against the
// given infra's database, same construction as cmd/ingestion-service's
// app.go uses at startup.
func buildTestAlertService(t *testing.T, infra *TestInfra) *alerts.Service {
	t.Helper()

	celEvaluator, err := cel.NewEvaluator()
	require.NoError(t, err)

	gateway := storage.NewGateway(infra.PostgresDB, createTestLogger())
	return alerts.NewService(gateway, alerts.NewRepository(), alerts.NewRuleCache(), celEvaluator, createTestLogger())
}

func strPtr(s string) *string { return &s }

func TestAlertsService_CreateAssignsBigserialID(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "pro-user@example.com", "pro")

	rule, err := svc.Create(ctx, alerts.CreateInput{
		UserID:         userID,
		EntityNameNorm: strPtr("acme corp"),
	})
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Greater(t, rule.ID, int64(0), "Postgres must assign a bigserial id, not a client-generated value")

	var stored int64
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT id FROM alert_rules WHERE id = $1`, rule.ID).Scan(&stored)
	require.NoError(t, err)
	assert.Equal(t, rule.ID, stored)
}

func TestAlertsService_CreateRejectsMissingFilters(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "no-filter-user@example.com", "pro")

	_, err := svc.Create(ctx, alerts.CreateInput{UserID: userID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAlertsService_CreateEnforcesStarterQuota(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "starter-user@example.com", "starter")

	_, err := svc.Create(ctx, alerts.CreateInput{UserID: userID, Region: strPtr("US")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, alerts.CreateInput{UserID: userID, Region: strPtr("DE")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsBusinessLogic(err))
}

func TestAlertsService_TeamPlanExpressionRejectedForOtherPlans(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "pro-expr-user@example.com", "pro")

	_, err := svc.Create(ctx, alerts.CreateInput{
		UserID:     userID,
		Region:     strPtr("US"),
		Expression: strPtr(`region == "US"`),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestAlertsService_DeleteRejectsWrongOwner(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	owner := insertTestUser(t, infra.PostgresDB, "owner@example.com", "pro")
	other := insertTestUser(t, infra.PostgresDB, "other@example.com", "pro")

	rule, err := svc.Create(ctx, alerts.CreateInput{UserID: owner, Region: strPtr("US")})
	require.NoError(t, err)

	err = svc.Delete(ctx, rule.ID, other)
	require.Error(t, err)
	var appErr *pkgerrors.Error
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.ErrAuthorization.Code, appErr.Code)
}

func TestAlertsService_DeleteRemovesRule(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "delete-user@example.com", "pro")

	rule, err := svc.Create(ctx, alerts.CreateInput{UserID: userID, Region: strPtr("US")})
	require.NoError(t, err)

	err = svc.Delete(ctx, rule.ID, userID)
	require.NoError(t, err)

	var count int
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_rules WHERE id = $1`, rule.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestAlertsService_FanoutMatchesAndAppendsLogs drives Fanout directly
// against a real transaction handle, the same way the ingestion engine
// invokes it for every inserted or content-changed record.
func TestAlertsService_FanoutMatchesAndAppendsLogs(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "fanout-user@example.com", "team")
	_, err := svc.Create(ctx, alerts.CreateInput{UserID: userID, EntityNameNorm: strPtr("acme corp"), Region: strPtr("US")})
	require.NoError(t, err)

	recordID := insertTestRecord(t, infra.PostgresDB, "src-fanout-1", "acme corp", "US")

	result, err := svc.Fanout(ctx, infra.PostgresDB, recordID, "insert")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Triggered)
	require.Len(t, result.RuleIDs, 1)

	var loggedRuleID int64
	err = infra.PostgresDB.QueryRowContext(ctx, `
		SELECT alert_rule_id FROM alert_logs WHERE record_id = $1
	`, recordID).Scan(&loggedRuleID)
	require.NoError(t, err)
	assert.Equal(t, result.RuleIDs[0], loggedRuleID)
}

func TestAlertsService_FanoutNoMatchTriggersNothing(t *testing.T) {
	infra := SetupTestInfra(t)
	svc := buildTestAlertService(t, infra)
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "no-match-user@example.com", "pro")
	_, err := svc.Create(ctx, alerts.CreateInput{UserID: userID, EntityNameNorm: strPtr("other corp")})
	require.NoError(t, err)

	recordID := insertTestRecord(t, infra.PostgresDB, "src-fanout-nomatch-1", "acme corp", "US")

	result, err := svc.Fanout(ctx, infra.PostgresDB, recordID, "insert")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Triggered)
	assert.Empty(t, result.RuleIDs)

	var count int
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_logs WHERE record_id = $1`, recordID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
