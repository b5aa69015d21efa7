package engine

import (
	"fmt"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
	"bazi-backend/internal/rules"
)

// Match is one rule that fired against a chart.
type Match struct {
	Code     string `json:"code"`
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Priority int    `json:"priority"`
}

// MatchChart evaluates the registry's rules against a completed chart
// and returns the ones that fired, in registry order: categories sorted,
// priority descending then id ascending within each. With no categories
// given every loaded category is evaluated; unknown categories simply
// have no rules and contribute nothing.
//
// An evaluation error (a condition referencing a predicate the evaluator
// does not know) aborts the whole call: a partial answer would silently
// drop readings.
func MatchChart(reg *rules.Registry, chart *bazi.Chart, categories ...string) ([]Match, error) {
	if len(categories) == 0 {
		categories = reg.Categories()
	}
	var out []Match
	for _, cat := range categories {
		for _, rec := range reg.RulesFor(cat) {
			ok, err := condition.Evaluate(rec.Conditions, chart)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", rec.Code, err)
			}
			if !ok {
				continue
			}
			out = append(out, Match{
				Code:     rec.Code,
				ID:       rec.ID,
				Category: rec.Category,
				Name:     rec.Name,
				Content:  rec.Content,
				Priority: rec.Priority,
			})
		}
	}
	return out, nil
}
