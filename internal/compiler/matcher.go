package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"bazi-backend/internal/condition"
)

// Category tags. Sheet names map onto these through CategoryFromSheet.
const (
	CategoryShishen   = "shishen"
	CategoryShensha   = "shensha"
	CategoryRizhu     = "rizhu"
	CategoryWuxing    = "wuxing"
	CategoryDizhi     = "dizhi"
	CategoryTiangan   = "tiangan"
	CategoryWangshuai = "wangshuai"
	CategoryNayin     = "nayin"
)

// CategoryFromSheet maps the workbook sheet names onto category tags.
var CategoryFromSheet = map[string]string{
	"十神": CategoryShishen,
	"神煞": CategoryShensha,
	"日柱": CategoryRizhu,
	"五行": CategoryWuxing,
	"地支": CategoryDizhi,
	"天干": CategoryTiangan,
	"旺衰": CategoryWangshuai,
	"纳音": CategoryNayin,
}

// clauseMatcher pairs one anchored recognizer with the builder that
// runs when it is the first to match. Table order is behavior, not
// layout: several later patterns are substrings of earlier ones, so
// reordering a table changes what rows compile to.
type clauseMatcher struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) (condition.Node, error)
}

// categories is the dispatch table. A tag outside this map is an
// unsupported category, reported as a row failure by Compile.
var categories = map[string][]clauseMatcher{
	CategoryShishen:   shishenMatchers,
	CategoryShensha:   shenshaMatchers,
	CategoryRizhu:     rizhuMatchers,
	CategoryWuxing:    wuxingMatchers,
	CategoryDizhi:     dizhiMatchers,
	CategoryTiangan:   tianganMatchers,
	CategoryWangshuai: wangshuaiMatchers,
	CategoryNayin:     nayinMatchers,
}

// Categories returns the known tags, sorted.
func Categories() []string {
	tags := make([]string, 0, len(categories))
	for tag := range categories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// MatcherNames exposes a category's table order for inspection and for
// the ordering tests.
func MatcherNames(category string) []string {
	table, ok := categories[category]
	if !ok {
		return nil
	}
	names := make([]string, len(table))
	for i, m := range table {
		names[i] = m.name
	}
	return names
}

// Clause connectives. A field splits into 或-groups first, each group
// then splits into 且-clauses, so 且 binds tighter than 或. Longer
// separators stand before their substrings.
var (
	orSeps  = []string{"，或者", "，或", "；或", "。或"}
	andSeps = []string{"，并且", "，同时", "，再有", "，且", "，再", "；", "并且", "且"}
)

func splitAll(s string, seps []string) []string {
	parts := []string{s}
	for _, sep := range seps {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	out := parts[:0]
	for _, p := range parts {
		p = strings.Trim(p, "。．. \t")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// compileField compiles one condition field: 或-groups become Any
// children, 且-clauses within a group become All children, single
// clauses stay bare.
func compileField(category, field string) (condition.Node, error) {
	groups := splitAll(field, orSeps)
	orKids := make([]condition.Node, 0, len(groups))
	for _, g := range groups {
		clauses := splitAll(g, andSeps)
		andKids := make([]condition.Node, 0, len(clauses))
		for _, clause := range clauses {
			node, err := compileClause(category, clause)
			if err != nil {
				return nil, err
			}
			andKids = append(andKids, node)
		}
		if len(andKids) == 0 {
			continue
		}
		orKids = append(orKids, allOf(andKids))
	}
	if len(orKids) == 0 {
		return nil, fmt.Errorf("category %s: no clause in %q", category, field)
	}
	return anyOf(orKids), nil
}

// compileClause runs the category's table in order. The first pattern
// to match commits: a builder error is a row failure, not a fall
// through to later patterns.
func compileClause(category, clause string) (condition.Node, error) {
	for _, m := range categories[category] {
		g := m.re.FindStringSubmatch(clause)
		if g == nil {
			continue
		}
		node, err := m.build(g)
		if err != nil {
			return nil, fmt.Errorf("category %s, pattern %s: %v (text %q)", category, m.name, err, clause)
		}
		return node, nil
	}
	return nil, fmt.Errorf("category %s has no pattern matching %q", category, clause)
}

func allOf(kids []condition.Node) condition.Node {
	if len(kids) == 1 {
		return kids[0]
	}
	return condition.All{Children: kids}
}

func anyOf(kids []condition.Node) condition.Node {
	if len(kids) == 1 {
		return kids[0]
	}
	return condition.Any{Children: kids}
}

// combine wraps per-token nodes: alternatives disjoin, companions
// conjoin.
func combine(kids []condition.Node, alternatives bool) condition.Node {
	if alternatives {
		return anyOf(kids)
	}
	return allOf(kids)
}
