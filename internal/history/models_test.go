package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimitDefaultsWhenNonPositive(t *testing.T) {
	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, DefaultLimit, clampLimit(-5))
}

func TestClampLimitCapsAtMax(t *testing.T) {
	assert.Equal(t, MaxLimit, clampLimit(1000))
}

func TestClampLimitPassesThroughValidValue(t *testing.T) {
	assert.Equal(t, 42, clampLimit(42))
}

func TestClampOffsetRejectsNegative(t *testing.T) {
	assert.Equal(t, 0, clampOffset(-10))
	assert.Equal(t, 5, clampOffset(5))
}
