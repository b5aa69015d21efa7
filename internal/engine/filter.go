package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"bazi-backend/internal/rules"
)

// CompileExpression compiles a filter expression into an expr-lang program.
func CompileExpression(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	return prog, nil
}

// FilterRules keeps the records for which the expression evaluates to
// true. Each record is exposed to the expression as id, code, name,
// category, priority and enabled. A compile or evaluation error comes
// back as INVALID_PAYLOAD so handlers can forward it directly.
func FilterRules(expression string, recs []rules.Record) ([]rules.Record, error) {
	prog, err := CompileExpression(expression)
	if err != nil {
		return nil, InvalidPayloadError(fmt.Sprintf("invalid filter: %v", err))
	}

	out := make([]rules.Record, 0, len(recs))
	for _, rec := range recs {
		env := map[string]any{
			"id":       rec.ID,
			"code":     rec.Code,
			"name":     rec.Name,
			"category": rec.Category,
			"priority": rec.Priority,
			"enabled":  rec.Enabled,
		}
		result, err := expr.Run(prog, env)
		if err != nil {
			return nil, InvalidPayloadError(fmt.Sprintf("filter evaluation: %v", err))
		}
		keep, ok := result.(bool)
		if ok && keep {
			out = append(out, rec)
		}
	}
	return out, nil
}
