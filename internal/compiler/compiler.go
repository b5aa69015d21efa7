package compiler

import (
	"fmt"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
)

// Row is one rule row from the tabular source, already keyed by
// category tag (or sheet name; Compile resolves both).
type Row struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Field1   string `json:"field1"`
	Field2   string `json:"field2"`
	Quantity string `json:"quantity,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Content  string `json:"result_text,omitempty"`
}

// Result is the outcome of compiling one row. OK rows carry a tree and
// no reason; failed rows carry a reason and no tree. There is never a
// partial tree.
type Result struct {
	OK     bool           `json:"ok"`
	Tree   condition.Node `json:"tree,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

func ok(tree condition.Node) Result { return Result{OK: true, Tree: tree} }

func fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// ResolveCategory accepts a category tag or a workbook sheet name and
// returns the tag.
func ResolveCategory(s string) (string, bool) {
	s = Normalize(s)
	if _, known := categories[s]; known {
		return s, true
	}
	if tag, known := CategoryFromSheet[s]; known {
		return tag, true
	}
	return "", false
}

// Compile turns one row into a condition tree. It is pure and total:
// every failure comes back through Result, never a panic, and the same
// row always compiles to the same tree.
func Compile(row Row) Result {
	f1 := Normalize(row.Field1)
	f2 := Normalize(row.Field2)
	if f1 == "" && f2 == "" {
		return fail("missing condition")
	}

	category, known := ResolveCategory(row.Category)
	if !known {
		return fail("unsupported category: %s", row.Category)
	}

	kids := make([]condition.Node, 0, 2)
	for _, field := range []string{f1, f2} {
		if field == "" {
			continue
		}
		node, err := compileField(category, field)
		if err != nil {
			return fail("%v", err)
		}
		kids = append(kids, node)
	}
	tree := allOf(kids)

	bounds, err := ParseQuantity(row.Quantity)
	if err != nil {
		return fail("%v", err)
	}
	if !bounds.IsZero() {
		applied := 0
		tree, applied = applyBounds(tree, bounds)
		if applied == 0 {
			return fail("quantity %q has no countable condition to bound", Normalize(row.Quantity))
		}
	}

	gender, err := parseGender(row.Gender)
	if err != nil {
		return fail("%v", err)
	}
	if gender != "" {
		tree = condition.All{Children: []condition.Node{
			condition.Gender{Value: gender},
			tree,
		}}
	}

	return ok(tree)
}

// applyBounds pushes a quantity qualifier onto every count-bearing
// leaf that has no inline bounds, rebuilding the tree on the way. The
// second result is how many leaves took the bounds; zero means the
// qualifier had nothing to govern and the row must fail rather than
// lose it.
func applyBounds(n condition.Node, b condition.Bounds) (condition.Node, int) {
	switch t := n.(type) {
	case condition.All:
		kids := make([]condition.Node, len(t.Children))
		total := 0
		for i, c := range t.Children {
			var k int
			kids[i], k = applyBounds(c, b)
			total += k
		}
		return condition.All{Children: kids}, total
	case condition.Any:
		kids := make([]condition.Node, len(t.Children))
		total := 0
		for i, c := range t.Children {
			var k int
			kids[i], k = applyBounds(c, b)
			total += k
		}
		return condition.Any{Children: kids}, total
	case condition.Not:
		child, k := applyBounds(t.Child, b)
		return condition.Not{Child: child}, k
	case condition.TenGodsSub:
		if t.Bounds.IsZero() {
			t.Bounds = b
			return t, 1
		}
	case condition.TenGodsTotal:
		if t.Bounds.IsZero() {
			t.Bounds = b
			return t, 1
		}
	case condition.BranchesCount:
		if t.Bounds.IsZero() {
			t.Bounds = b
			return t, 1
		}
	case condition.ElementTotal:
		if t.Bounds.IsZero() {
			t.Bounds = b
			return t, 1
		}
	}
	return n, 0
}

// genderWords maps the qualifier spellings the sheets use. Empty and
// the no-limit words mean no filter.
var genderWords = map[string]string{
	"男": bazi.GenderMale, "男命": bazi.GenderMale, "male": bazi.GenderMale,
	"女": bazi.GenderFemale, "女命": bazi.GenderFemale, "female": bazi.GenderFemale,
}

func parseGender(s string) (string, error) {
	s = Normalize(s)
	if noLimitWords[s] || s == "any" {
		return "", nil
	}
	if g, known := genderWords[s]; known {
		return g, nil
	}
	return "", fmt.Errorf("unrecognized gender %q", s)
}
