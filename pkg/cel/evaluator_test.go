package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid equality expression",
			expr:      `status == "active"`,
			wantError: false,
		},
		{
			name:      "valid contains expression",
			expr:      `entity_name_norm.contains("bank")`,
			wantError: false,
		},
		{
			name:      "non-bool expression",
			expr:      `record_id`,
			wantError: true,
		},
		{
			name:      "invalid syntax",
			expr:      `invalid syntax here!!!`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `undefinedVar == "test"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	ctx := context.Background()
	vars := RecordVars{
		RecordID:       "rec-1",
		SourceKey:      "bulk:rec-1",
		Region:         "us-east",
		EntityNameNorm: "acme bank",
		Status:         "active",
	}

	tests := []struct {
		name      string
		expr      string
		want      bool
		wantError bool
	}{
		{
			name:      "simple equality true",
			expr:      `status == "active"`,
			want:      true,
			wantError: false,
		},
		{
			name:      "simple equality false",
			expr:      `status == "inactive"`,
			want:      false,
			wantError: false,
		},
		{
			name:      "region and status combined",
			expr:      `region == "us-east" && status == "active"`,
			want:      true,
			wantError: false,
		},
		{
			name:      "contains on entity name",
			expr:      `entity_name_norm.contains("bank")`,
			want:      true,
			wantError: false,
		},
		{
			name:      "contains false",
			expr:      `entity_name_norm.contains("trust")`,
			want:      false,
			wantError: false,
		},
		{
			name:      "non-bool result is an error",
			expr:      `record_id`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.Evaluate(ctx, tt.expr, vars)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, result)
			}
		})
	}
}
