package rules

import (
	"context"
	"sort"
	"sync"
)

// Registry holds the enabled rules the match service evaluates, grouped
// by category, together with the store version they were loaded at.
// Load replaces the whole content; readers see either the old load or
// the new one, never a mix.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[string][]Record
	count      int
	version    int64
}

func NewRegistry() *Registry {
	return &Registry{byCategory: make(map[string][]Record)}
}

// Load replaces the registry content. Records are grouped by category
// and ordered by priority descending, id ascending, so RulesFor hands
// the evaluator its match order directly.
func (r *Registry) Load(records []Record, version int64) {
	grouped := make(map[string][]Record)
	for _, rec := range records {
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}
	for _, g := range grouped {
		sort.SliceStable(g, func(i, j int) bool {
			if g[i].Priority != g[j].Priority {
				return g[i].Priority > g[j].Priority
			}
			return g[i].ID < g[j].ID
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCategory = grouped
	r.count = len(records)
	r.version = version
}

// RulesFor returns the loaded rules of one category in match order.
// Callers must not mutate the returned slice.
func (r *Registry) RulesFor(category string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCategory[category]
}

// Categories returns the categories that have loaded rules, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// All returns every loaded rule, category by category in sorted order,
// match order within each.
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cats := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	out := make([]Record, 0, r.count)
	for _, c := range cats {
		out = append(out, r.byCategory[c]...)
	}
	return out
}

// Len returns the number of loaded rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Version returns the store version the current content was loaded at.
func (r *Registry) Version() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Source is the slice of the store the registry loads from.
type Source interface {
	ListRules(ctx context.Context, category string, enabledOnly bool) ([]Record, error)
	RuleVersion(ctx context.Context) (int64, error)
}

// LoadAll reads the enabled rules and the rule version from the store
// and replaces the registry content. Called at startup and again after
// every successful import batch.
func LoadAll(ctx context.Context, src Source, reg *Registry) error {
	version, err := src.RuleVersion(ctx)
	if err != nil {
		return err
	}
	records, err := src.ListRules(ctx, "", true)
	if err != nil {
		return err
	}
	reg.Load(records, version)
	return nil
}
