// Package cel wraps google/cel-go to validate and evaluate the optional
// predicate expression attached to team-plan alert rules. The expression
// runs against a record's canonical fields, ANDed in after the literal
// entity_name_norm/region filters have already matched in SQL.
package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
)

// RecordVars is the set of canonical fields a predicate expression may
// reference. Field names are fixed by the declared CEL environment below.
type RecordVars struct {
	RecordID      string
	SourceKey     string
	Region        string
	EntityNameNorm string
	Status        string
}

type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("record_id", cel.StringType),
		cel.Variable("source_key", cel.StringType),
		cel.Variable("region", cel.StringType),
		cel.Variable("entity_name_norm", cel.StringType),
		cel.Variable("status", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// ValidateExpression compiles expression and requires it to type-check
// to bool. Called at alert-rule creation time so a bad expression fails
// fast as a validation error rather than during fan-out.
func (e *Evaluator) ValidateExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("predicate expression must return bool, got %v", ast.OutputType())
	}

	return nil
}

// Evaluate runs expression against a single record's canonical fields.
// The caller has already applied any literal entity_name_norm/region
// filter in SQL; this is a pure narrowing of that already-matched set.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, vars RecordVars) (bool, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return false, fmt.Errorf("predicate expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	input := map[string]interface{}{
		"record_id":        vars.RecordID,
		"source_key":       vars.SourceKey,
		"region":           vars.Region,
		"entity_name_norm": vars.EntityNameNorm,
		"status":           vars.Status,
	}

	result, _, err := program.ContextEval(ctx, input)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}
