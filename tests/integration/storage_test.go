package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/storage"
)

func TestGatewayTransaction_CommitsOnSuccess(t *testing.T) {
	infra := SetupTestInfra(t)
	gateway := storage.NewGateway(infra.PostgresDB, createTestLogger())
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "tx-commit@example.com", "pro")

	err := gateway.Transaction(ctx, func(ctx context.Context, h storage.Handle) error {
		_, err := h.ExecContext(ctx, `UPDATE users SET plan = $1 WHERE id = $2`, "team", userID)
		return err
	})
	require.NoError(t, err)

	var plan string
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = $1`, userID).Scan(&plan)
	require.NoError(t, err)
	assert.Equal(t, "team", plan, "a committed transaction's writes must be visible afterward")
}

func TestGatewayTransaction_RollsBackOnError(t *testing.T) {
	infra := SetupTestInfra(t)
	gateway := storage.NewGateway(infra.PostgresDB, createTestLogger())
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "tx-rollback@example.com", "pro")
	sentinel := errors.New("scope failed after the write")

	err := gateway.Transaction(ctx, func(ctx context.Context, h storage.Handle) error {
		if _, err := h.ExecContext(ctx, `UPDATE users SET plan = $1 WHERE id = $2`, "team", userID); err != nil {
			return err
		}
		return sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	var plan string
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = $1`, userID).Scan(&plan)
	require.NoError(t, err)
	assert.Equal(t, "pro", plan, "a scope error must roll back every write made on its handle")
}

func TestGatewayTransaction_RollsBackOnConstraintViolation(t *testing.T) {
	infra := SetupTestInfra(t)
	gateway := storage.NewGateway(infra.PostgresDB, createTestLogger())
	ctx := context.Background()

	userID := insertTestUser(t, infra.PostgresDB, "tx-constraint@example.com", "pro")

	err := gateway.Transaction(ctx, func(ctx context.Context, h storage.Handle) error {
		if _, err := h.ExecContext(ctx, `UPDATE users SET plan = $1 WHERE id = $2`, "team", userID); err != nil {
			return err
		}
		// plan has a CHECK constraint restricting it to starter/pro/team;
		// this second write in the same scope must fail and take the
		// first write down with it.
		_, err := h.ExecContext(ctx, `UPDATE users SET plan = $1 WHERE id = $2`, "enterprise-unlimited", userID)
		return err
	})
	require.Error(t, err)

	var plan string
	err = infra.PostgresDB.QueryRowContext(ctx, `SELECT plan FROM users WHERE id = $1`, userID).Scan(&plan)
	require.NoError(t, err)
	assert.Equal(t, "pro", plan)
}
