package rules

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestCode(t *testing.T) {
	if got := Code("shishen", 42); got != "FORMULA_SHISHEN_42" {
		t.Fatalf("Code = %q", got)
	}
	if got := Code("rizhu", 1); got != "FORMULA_RIZHU_1" {
		t.Fatalf("Code = %q", got)
	}
	// Same row, same code: the upsert key is deterministic.
	if Code("dizhi", 7) != Code("dizhi", 7) {
		t.Fatal("code is not deterministic")
	}
}

func sampleRecords() []Record {
	return []Record{
		{ID: 3, Code: Code("shishen", 3), Category: "shishen", Priority: 100},
		{ID: 1, Code: Code("shishen", 1), Category: "shishen", Priority: 200},
		{ID: 2, Code: Code("shishen", 2), Category: "shishen", Priority: 200},
		{ID: 9, Code: Code("rizhu", 9), Category: "rizhu", Priority: 100},
	}
}

func TestRegistryLoadOrders(t *testing.T) {
	reg := NewRegistry()
	reg.Load(sampleRecords(), 5)

	got := reg.RulesFor("shishen")
	ids := make([]int64, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	// Priority 200 before 100; equal priority by id ascending.
	want := []int64{1, 2, 3}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("shishen order = %v, want %v", ids, want)
	}

	if n := len(reg.RulesFor("rizhu")); n != 1 {
		t.Fatalf("rizhu count = %d", n)
	}
	if reg.RulesFor("nayin") != nil {
		t.Fatal("unknown category must return nil")
	}
	if reg.Len() != 4 {
		t.Fatalf("Len = %d", reg.Len())
	}
	if reg.Version() != 5 {
		t.Fatalf("Version = %d", reg.Version())
	}
	if cats := reg.Categories(); !reflect.DeepEqual(cats, []string{"rizhu", "shishen"}) {
		t.Fatalf("Categories = %v", cats)
	}
}

func TestRegistryAll(t *testing.T) {
	reg := NewRegistry()
	reg.Load(sampleRecords(), 1)

	all := reg.All()
	if len(all) != 4 {
		t.Fatalf("All returned %d records", len(all))
	}
	// Categories sorted, match order within: rizhu 9, then shishen 1 2 3.
	wantIDs := []int64{9, 1, 2, 3}
	for i, r := range all {
		if r.ID != wantIDs[i] {
			t.Fatalf("All()[%d].ID = %d, want %d", i, r.ID, wantIDs[i])
		}
	}
}

func TestRegistryReload(t *testing.T) {
	reg := NewRegistry()
	reg.Load(sampleRecords(), 1)
	reg.Load([]Record{{ID: 8, Category: "wuxing", Priority: 50}}, 2)

	if reg.RulesFor("shishen") != nil {
		t.Fatal("reload must drop the previous content")
	}
	if reg.Len() != 1 || reg.Version() != 2 {
		t.Fatalf("Len=%d Version=%d after reload", reg.Len(), reg.Version())
	}
}

type fakeSource struct {
	records []Record
	version int64
	err     error
}

func (f *fakeSource) ListRules(ctx context.Context, category string, enabledOnly bool) ([]Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !enabledOnly {
		return nil, errors.New("registry must load enabled rules only")
	}
	return f.records, nil
}

func (f *fakeSource) RuleVersion(ctx context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.version, nil
}

func TestLoadAll(t *testing.T) {
	reg := NewRegistry()
	src := &fakeSource{records: sampleRecords(), version: 7}
	if err := LoadAll(context.Background(), src, reg); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if reg.Len() != 4 || reg.Version() != 7 {
		t.Fatalf("Len=%d Version=%d", reg.Len(), reg.Version())
	}

	boom := errors.New("boom")
	if err := LoadAll(context.Background(), &fakeSource{err: boom}, reg); !errors.Is(err, boom) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	// A failed reload leaves the previous content in place.
	if reg.Len() != 4 || reg.Version() != 7 {
		t.Fatalf("failed reload must not clear the registry: Len=%d Version=%d", reg.Len(), reg.Version())
	}
}
