package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/regwatch/regwatch/internal/constants"
)

func TestClampLimitAndOffset(t *testing.T) {
	assert.Equal(t, constants.DefaultLimit, clampLimit(0))
	assert.Equal(t, constants.MaxLimit, clampLimit(1000))
	assert.Equal(t, 42, clampLimit(42))
	assert.Equal(t, 0, clampOffset(-5))
	assert.Equal(t, 7, clampOffset(7))
}

func TestBuildWhereCombinesNonEmptyFilters(t *testing.T) {
	where, args := buildWhere(Filter{EntityNameNorm: "acme llc", Region: "TX"}, nil)
	assert.Equal(t, "WHERE entity_name_norm = $1 AND region = $2", where)
	assert.Equal(t, []interface{}{"acme llc", "TX"}, args)
}

func TestBuildWhereEmptyFilterProducesNoClause(t *testing.T) {
	where, args := buildWhere(Filter{}, nil)
	assert.Equal(t, "", where)
	assert.Empty(t, args)
}
