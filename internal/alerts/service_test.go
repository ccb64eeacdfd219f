package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/regwatch/regwatch/internal/logger"
	"github.com/regwatch/regwatch/pkg/cel"
)

func testService(t *testing.T) *Service {
	t.Helper()
	evaluator, err := cel.NewEvaluator()
	require.NoError(t, err)
	return NewService(nil, NewRepository(), NewRuleCache(), evaluator, logger.NopLogger())
}

func strptr(s string) *string { return &s }

func TestCreateRejectsNonPositiveUserID(t *testing.T) {
	s := testService(t)
	_, err := s.Create(context.Background(), CreateInput{UserID: 0, Region: strptr("TX")})
	assert.Error(t, err)
}

func TestCreateRejectsNoFilters(t *testing.T) {
	s := testService(t)
	_, err := s.Create(context.Background(), CreateInput{UserID: 1})
	assert.Error(t, err)
}

func TestCreateRejectsLowercaseRegion(t *testing.T) {
	s := testService(t)
	_, err := s.Create(context.Background(), CreateInput{UserID: 1, Region: strptr("tx")})
	assert.Error(t, err)
}

func TestCreateRejectsOverlongEntityNameNorm(t *testing.T) {
	s := testService(t)
	long := make([]byte, maxEntityNameNormLen+1)
	for i := range long {
		long[i] = 'a'
	}
	name := string(long)
	_, err := s.Create(context.Background(), CreateInput{UserID: 1, EntityNameNorm: &name})
	assert.Error(t, err)
}

func TestCreateRejectsUncompilableExpression(t *testing.T) {
	s := testService(t)
	_, err := s.Create(context.Background(), CreateInput{
		UserID:     1,
		Region:     strptr("TX"),
		Expression: strptr("region +"),
	})
	assert.Error(t, err)
}

