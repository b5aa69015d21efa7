package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"bazi-backend/internal/condition"
	"bazi-backend/internal/config"
	"bazi-backend/internal/rules"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Path:   t.TempDir(),
		Name:   "rules_test",
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func formulaRecord(id int64, category string, priority int) rules.Record {
	return rules.Record{
		ID:       id,
		Code:     rules.Code(category, id),
		Name:     fmt.Sprintf("%s_%d", category, id),
		Type:     rules.TypeFormula,
		Category: category,
		Priority: priority,
		Conditions: condition.All{Children: []condition.Node{
			condition.TenGodsTotal{Names: []string{"伤官"}, Bounds: condition.AtLeast(3)},
		}},
		Content: "伤官旺，聪明而任性。",
		Source:  "rules_test",
		Enabled: true,
	}
}

func TestUpsertAndListRules(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	recs := []rules.Record{
		formulaRecord(2, "shishen", 100),
		formulaRecord(1, "shishen", 100),
		formulaRecord(3, "shishen", 200),
		formulaRecord(1, "wuxing", 100),
	}
	n, err := s.UpsertRules(ctx, recs)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if n != 4 {
		t.Fatalf("written = %d, want 4", n)
	}

	got, err := s.ListRules(ctx, "shishen", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// priority desc, id asc
	wantOrder := []int64{3, 1, 2}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("pos %d: id = %d, want %d", i, got[i].ID, id)
		}
	}
	if got[0].Code != "FORMULA_SHISHEN_3" {
		t.Errorf("code = %q", got[0].Code)
	}

	all, err := s.ListRules(ctx, "", false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}
}

func TestUpsertConditionsRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := formulaRecord(7, "shishen", 100)
	if _, err := s.UpsertRules(ctx, []rules.Record{rec}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetRule(ctx, rec.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want, err := condition.Marshal(rec.Conditions)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	have, err := condition.Marshal(got.Conditions)
	if err != nil {
		t.Fatalf("marshal have: %v", err)
	}
	if !bytes.Equal(want, have) {
		t.Errorf("conditions round trip:\nwant %s\nhave %s", want, have)
	}
	if !got.Enabled {
		t.Error("enabled flag lost")
	}
	if got.Content != rec.Content {
		t.Errorf("content = %q, want %q", got.Content, rec.Content)
	}
}

func TestUpsertSameCodeReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := formulaRecord(5, "shensha", 100)
	if _, err := s.UpsertRules(ctx, []rules.Record{rec}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.Content = "驿马逢冲，奔波不定。"
	rec.Priority = 150
	if _, err := s.UpsertRules(ctx, []rules.Record{rec}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.ListRules(ctx, "shensha", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (same code must replace)", len(got))
	}
	if got[0].Content != rec.Content || got[0].Priority != 150 {
		t.Errorf("replace did not take: %+v", got[0])
	}
}

func TestGetRuleNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetRule(context.Background(), "FORMULA_SHISHEN_999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSetRuleEnabled(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := formulaRecord(9, "dizhi", 100)
	if _, err := s.UpsertRules(ctx, []rules.Record{rec}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.SetRuleEnabled(ctx, rec.Code, false); err != nil {
		t.Fatalf("disable: %v", err)
	}

	enabled, err := s.ListRules(ctx, "dizhi", true)
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	if len(enabled) != 0 {
		t.Fatalf("disabled rule still listed: %+v", enabled)
	}

	got, err := s.GetRule(ctx, rec.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Enabled {
		t.Error("enabled = true after disable")
	}

	if err := s.SetRuleEnabled(ctx, "FORMULA_DIZHI_404", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing code: err = %v, want ErrNotFound", err)
	}
}

func TestRuleVersionBump(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	v, err := s.RuleVersion(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 0 {
		t.Fatalf("fresh version = %d, want 0", v)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := s.BumpRuleVersion(ctx)
		if err != nil {
			t.Fatalf("bump: %v", err)
		}
		if got != want {
			t.Fatalf("bump = %d, want %d", got, want)
		}
	}
}

func TestRegistryLoadsFromStore(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	disabled := formulaRecord(2, "wangshuai", 100)
	disabled.Enabled = false
	recs := []rules.Record{formulaRecord(1, "wangshuai", 100), disabled}
	if _, err := s.UpsertRules(ctx, recs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.BumpRuleVersion(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}

	reg := rules.NewRegistry()
	if err := rules.LoadAll(ctx, s, reg); err != nil {
		t.Fatalf("load all: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry len = %d, want 1 (disabled rules stay out)", reg.Len())
	}
	if reg.Version() != 1 {
		t.Fatalf("registry version = %d, want 1", reg.Version())
	}
	if got := reg.RulesFor("wangshuai"); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("rules for wangshuai: %+v", got)
	}
}

func TestSeedAdminUserIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.SeedAdminUser(ctx, "admin@localhost", "changeme"); err != nil {
			t.Fatalf("seed #%d: %v", i+1, err)
		}
	}

	row, err := QueryRow(ctx, s.DB, "SELECT COUNT(*) AS n FROM _users")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n, _ := row["n"].(int64); n != 1 {
		t.Fatalf("user count = %d, want 1", n)
	}
}

func TestCountRules(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	disabled := formulaRecord(2, "tiangan", 100)
	disabled.Enabled = false
	if _, err := s.UpsertRules(ctx, []rules.Record{formulaRecord(1, "tiangan", 100), disabled}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	total, enabled, err := s.CountRules(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 || enabled != 1 {
		t.Fatalf("total = %d enabled = %d, want 2/1", total, enabled)
	}
}
