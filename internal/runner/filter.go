package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/flowlayer/flowengine/internal/domain"
)

// ExprFilter consumes Items and produces the subset matching a boolean
// expr-lang/expr predicate evaluated per item, with the item's fields
// (title, url, summary) exposed as string variables. Grounded on the
// expr.Compile/expr.Run condition-evaluation pattern used for conditional
// edges and router nodes, narrowed here to a single per-item predicate.
type ExprFilter struct{}

func (ExprFilter) Run(_ context.Context, config map[string]any, input domain.NodeOutput) (domain.NodeOutput, error) {
	condition, _ := config["condition"].(string)
	if strings.TrimSpace(condition) == "" {
		return input, nil
	}

	program, err := expr.Compile(condition, expr.AsBool())
	if err != nil {
		return domain.Empty, fmt.Errorf("compile filter condition %q: %w", condition, err)
	}

	items := domain.AsItems(input)
	kept := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		vars := map[string]any{
			"title":   strings.TrimSpace(item.Title),
			"url":     strings.TrimSpace(item.URL),
			"summary": strings.TrimSpace(item.Summary),
		}
		result, err := expr.Run(program, vars)
		if err != nil {
			return domain.Empty, fmt.Errorf("evaluate filter condition %q: %w", condition, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return domain.Empty, fmt.Errorf("filter condition %q did not return a boolean", condition)
		}
		if matched {
			kept = append(kept, item)
		}
	}
	return domain.NewItems(kept), nil
}
