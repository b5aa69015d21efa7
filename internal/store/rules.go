package store

import (
	"context"
	"fmt"
	"strings"

	"bazi-backend/internal/condition"
	"bazi-backend/internal/rules"
)

const ruleColumns = "code, id, name, type, category, priority, conditions, content, description, source, enabled"

// UpsertRules writes records in one transaction, keyed by code: new codes
// insert, existing codes are replaced in full. Returns the number of rows
// written. Callers chunk large batches; one call is one transaction.
func (s *Store) UpsertRules(ctx context.Context, recs []rules.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var written int64
	for _, rec := range recs {
		condJSON, err := condition.Marshal(rec.Conditions)
		if err != nil {
			return 0, fmt.Errorf("encode conditions for %s: %w", rec.Code, err)
		}
		pb := s.Dialect.NewParamBuilder()
		now := s.Dialect.NowExpr()
		sqlStr := fmt.Sprintf(`INSERT INTO formula_rules (%s, created_at, updated_at)
VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
ON CONFLICT (code) DO UPDATE SET
    id = excluded.id,
    name = excluded.name,
    type = excluded.type,
    category = excluded.category,
    priority = excluded.priority,
    conditions = excluded.conditions,
    content = excluded.content,
    description = excluded.description,
    source = excluded.source,
    enabled = excluded.enabled,
    updated_at = %s`,
			ruleColumns,
			pb.Add(rec.Code), pb.Add(rec.ID), pb.Add(rec.Name), pb.Add(rec.Type),
			pb.Add(rec.Category), pb.Add(rec.Priority), pb.Add(string(condJSON)),
			pb.Add(rec.Content), pb.Add(rec.Description), pb.Add(rec.Source),
			pb.Add(rec.Enabled), now, now, now)
		n, err := Exec(ctx, tx, sqlStr, pb.Params()...)
		if err != nil {
			return 0, MapError(s.Dialect, err)
		}
		written += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// ListRules returns rules ordered by priority descending, id ascending.
// category and enabledOnly narrow the result; zero values mean no filter.
func (s *Store) ListRules(ctx context.Context, category string, enabledOnly bool) ([]rules.Record, error) {
	pb := s.Dialect.NewParamBuilder()
	var where []string
	if category != "" {
		where = append(where, fmt.Sprintf("category = %s", pb.Add(category)))
	}
	if enabledOnly {
		where = append(where, fmt.Sprintf("enabled = %s", pb.Add(true)))
	}

	sqlStr := "SELECT " + ruleColumns + " FROM formula_rules"
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}
	sqlStr += " ORDER BY priority DESC, id ASC"

	rows, err := QueryRows(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, err
	}
	if s.Dialect.NeedsBoolFix() {
		NormalizeBooleans(rows, []string{"enabled"})
	}

	out := make([]rules.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := scanRule(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetRule returns the rule with the given code, or ErrNotFound.
func (s *Store) GetRule(ctx context.Context, code string) (rules.Record, error) {
	pb := s.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT %s FROM formula_rules WHERE code = %s", ruleColumns, pb.Add(code))
	row, err := QueryRow(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return rules.Record{}, err
	}
	if s.Dialect.NeedsBoolFix() {
		NormalizeBooleans([]map[string]any{row}, []string{"enabled"})
	}
	return scanRule(row)
}

// SetRuleEnabled flips the enabled flag of one rule. Returns ErrNotFound
// when no rule has the code.
func (s *Store) SetRuleEnabled(ctx context.Context, code string, enabled bool) error {
	pb := s.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"UPDATE formula_rules SET enabled = %s, updated_at = %s WHERE code = %s",
		pb.Add(enabled), s.Dialect.NowExpr(), pb.Add(code))
	n, err := Exec(ctx, s.DB, sqlStr, pb.Params()...)
	if err != nil {
		return MapError(s.Dialect, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RuleVersion returns the global rule version counter.
func (s *Store) RuleVersion(ctx context.Context) (int64, error) {
	row, err := QueryRow(ctx, s.DB, "SELECT version FROM formula_rule_version WHERE id = 1")
	if err != nil {
		return 0, err
	}
	return toInt64(row["version"]), nil
}

// BumpRuleVersion increments the global rule version counter and returns
// the new value. Called once per successful import batch.
func (s *Store) BumpRuleVersion(ctx context.Context) (int64, error) {
	sqlStr := fmt.Sprintf(
		"UPDATE formula_rule_version SET version = version + 1, updated_at = %s WHERE id = 1",
		s.Dialect.NowExpr())
	if _, err := Exec(ctx, s.DB, sqlStr); err != nil {
		return 0, err
	}
	return s.RuleVersion(ctx)
}

// CountRules returns the total and enabled rule counts.
func (s *Store) CountRules(ctx context.Context) (total, enabled int64, err error) {
	expr := s.Dialect.FilterCountExpr("enabled = " + boolLiteral(s.Dialect))
	row, err := QueryRow(ctx, s.DB,
		fmt.Sprintf("SELECT COUNT(*) AS total, %s AS enabled FROM formula_rules", expr))
	if err != nil {
		return 0, 0, err
	}
	return toInt64(row["total"]), toInt64(row["enabled"]), nil
}

func boolLiteral(d Dialect) string {
	if d.NeedsBoolFix() {
		return "1"
	}
	return "true"
}

func scanRule(row map[string]any) (rules.Record, error) {
	rec := rules.Record{
		Code:        toStr(row["code"]),
		ID:          toInt64(row["id"]),
		Name:        toStr(row["name"]),
		Type:        toStr(row["type"]),
		Category:    toStr(row["category"]),
		Priority:    int(toInt64(row["priority"])),
		Content:     toStr(row["content"]),
		Description: toStr(row["description"]),
		Source:      toStr(row["source"]),
		Enabled:     toBool(row["enabled"]),
	}
	raw := toStr(row["conditions"])
	if raw == "" {
		return rules.Record{}, fmt.Errorf("rule %s has no conditions", rec.Code)
	}
	node, err := condition.Unmarshal([]byte(raw))
	if err != nil {
		return rules.Record{}, fmt.Errorf("decode conditions for %s: %w", rec.Code, err)
	}
	rec.Conditions = node
	return rec, nil
}

func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	}
	return false
}

// The registry loads through this store.
var _ rules.Source = (*Store)(nil)
