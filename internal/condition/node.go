// Package condition defines the typed boolean tree produced by the rule
// compiler, its JSON wire form, and the evaluator that runs a tree
// against a completed chart.
package condition

import "bazi-backend/internal/bazi"

// Kind discriminates node types on the wire and in the predicate table.
type Kind string

const (
	KindAll Kind = "all"
	KindAny Kind = "any"
	KindNot Kind = "not"

	KindPillarEquals     Kind = "pillar_equals"
	KindPillarIn         Kind = "pillar_in"
	KindMainStarInPillar Kind = "main_star_in_pillar"
	KindTenGodsSub       Kind = "ten_gods_sub"
	KindTenGodsTotal     Kind = "ten_gods_total"
	KindBranchesCount    Kind = "branches_count"
	KindElementTotal     Kind = "element_total"
	KindDeitiesInPillar  Kind = "deities_in_pillar"
	KindDeitiesInAny     Kind = "deities_in_any"
	KindPillarRelation   Kind = "pillar_relation"
	KindWangshuai        Kind = "wangshuai"
	KindXishen           Kind = "xishen"
	KindJishen           Kind = "jishen"
	KindNayinEquals      Kind = "nayin_equals"
	KindStemsSequence    Kind = "stems_sequence"
	KindStarStage        Kind = "star_stage"
	KindGender           Kind = "gender"
)

// Node is one node of a condition tree. The set of implementations is
// closed: every kind the compiler can emit has a predicate in the
// evaluator, and the JSON codec rejects kinds outside this file.
type Node interface {
	Kind() Kind
}

// Part selectors for nodes that address one half of a pillar.
const (
	PartStem   = "stem"
	PartBranch = "branch"
)

// Part selectors for StarStage.
const (
	PartFortune = "fortune"
	PartSitting = "sitting"
)

// Bounds constrains a count. All limits are inclusive; Eq excludes Min
// and Max. The zero value means presence, count >= 1.
type Bounds struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
	Eq  *int `json:"eq,omitempty"`
}

// Match reports whether count satisfies the bounds.
func (b Bounds) Match(count int) bool {
	if b.Eq != nil {
		return count == *b.Eq
	}
	if b.Min == nil && b.Max == nil {
		return count >= 1
	}
	if b.Min != nil && count < *b.Min {
		return false
	}
	if b.Max != nil && count > *b.Max {
		return false
	}
	return true
}

// IsZero reports whether no limit is set.
func (b Bounds) IsZero() bool { return b.Min == nil && b.Max == nil && b.Eq == nil }

// Exactly bounds a count to one value.
func Exactly(n int) Bounds { return Bounds{Eq: &n} }

// AtLeast bounds a count from below, inclusive.
func AtLeast(n int) Bounds { return Bounds{Min: &n} }

// AtMost bounds a count from above, inclusive.
func AtMost(n int) Bounds { return Bounds{Max: &n} }

// Between bounds a count to an inclusive range.
func Between(lo, hi int) Bounds { return Bounds{Min: &lo, Max: &hi} }

// All is true when every child is true. Children evaluate in order and
// evaluation stops at the first false child.
type All struct {
	Children []Node `json:"children"`
}

// Any is true when at least one child is true. Children evaluate in
// order and evaluation stops at the first true child.
type Any struct {
	Children []Node `json:"children"`
}

// Not negates its child.
type Not struct {
	Child Node `json:"child"`
}

// PillarEquals is true when the pillar's stem-branch pair is one of
// Values.
type PillarEquals struct {
	Pillar bazi.PillarKey `json:"pillar"`
	Values []string       `json:"values"`
}

// PillarIn is true when the selected half of the pillar is one of
// Values.
type PillarIn struct {
	Pillar bazi.PillarKey `json:"pillar"`
	Part   string         `json:"part"`
	Values []string       `json:"values"`
}

// MainStarInPillar is true when the pillar's main star equals Eq.
type MainStarInPillar struct {
	Pillar bazi.PillarKey `json:"pillar"`
	Eq     string         `json:"eq"`
}

// TenGodsSub counts the named ten gods among the sub stars of the given
// pillars (all four when empty) and checks the count against the
// bounds.
type TenGodsSub struct {
	Names   []string         `json:"names"`
	Pillars []bazi.PillarKey `json:"pillars,omitempty"`
	Bounds
}

// TenGodsTotal counts the named ten gods across main and sub stars of
// the whole chart.
type TenGodsTotal struct {
	Names []string `json:"names"`
	Bounds
}

// BranchesCount counts how many of the four branches fall in Names.
type BranchesCount struct {
	Names []string `json:"names"`
	Bounds
}

// ElementTotal checks the summed chart count of the named elements.
type ElementTotal struct {
	Names []string `json:"names"`
	Bounds
}

// DeitiesInPillar is true when the pillar carries the named deity.
type DeitiesInPillar struct {
	Pillar bazi.PillarKey `json:"pillar"`
	Name   string         `json:"name"`
}

// DeitiesInAny is true when any pillar carries the named deity.
type DeitiesInAny struct {
	Name string `json:"name"`
}

// PillarRelation is true when two pillars stand in the named relation.
// Part selects stems for heavenly-stem combines; empty means branches.
type PillarRelation struct {
	PillarA  bazi.PillarKey `json:"pillar_a"`
	PillarB  bazi.PillarKey `json:"pillar_b"`
	Relation bazi.Relation  `json:"relation"`
	Part     string         `json:"part,omitempty"`
}

// Wangshuai is true when the chart's strength label is one of States.
type Wangshuai struct {
	States []string `json:"states"`
}

// Xishen is true when Name is among the chart's favorable elements or
// ten gods.
type Xishen struct {
	Name string `json:"name"`
}

// Jishen is true when Name is among the chart's unfavorable elements or
// ten gods.
type Jishen struct {
	Name string `json:"name"`
}

// NayinEquals is true when the pillar's sound element equals Nayin.
type NayinEquals struct {
	Pillar bazi.PillarKey `json:"pillar"`
	Nayin  string         `json:"nayin"`
}

// StemsSequence is true when the four stems, in year-to-hour order,
// contain Names as a contiguous run. Rows carrying stem runs appear in
// the source sheets under the branches category; that placement is kept
// as-is, so this node is what the branches table emits for them.
type StemsSequence struct {
	Names []string `json:"names"`
}

// StarStage is true when the pillar's star-fortune or self-sitting
// stage is one of Stages. Part is "fortune" or "sitting".
type StarStage struct {
	Pillar bazi.PillarKey `json:"pillar"`
	Part   string         `json:"part"`
	Stages []string       `json:"stages"`
}

// Gender is true when the chart gender equals Value.
type Gender struct {
	Value string `json:"value"`
}

func (All) Kind() Kind              { return KindAll }
func (Any) Kind() Kind              { return KindAny }
func (Not) Kind() Kind              { return KindNot }
func (PillarEquals) Kind() Kind     { return KindPillarEquals }
func (PillarIn) Kind() Kind         { return KindPillarIn }
func (MainStarInPillar) Kind() Kind { return KindMainStarInPillar }
func (TenGodsSub) Kind() Kind       { return KindTenGodsSub }
func (TenGodsTotal) Kind() Kind     { return KindTenGodsTotal }
func (BranchesCount) Kind() Kind    { return KindBranchesCount }
func (ElementTotal) Kind() Kind     { return KindElementTotal }
func (DeitiesInPillar) Kind() Kind  { return KindDeitiesInPillar }
func (DeitiesInAny) Kind() Kind     { return KindDeitiesInAny }
func (PillarRelation) Kind() Kind   { return KindPillarRelation }
func (Wangshuai) Kind() Kind        { return KindWangshuai }
func (Xishen) Kind() Kind           { return KindXishen }
func (Jishen) Kind() Kind           { return KindJishen }
func (NayinEquals) Kind() Kind      { return KindNayinEquals }
func (StemsSequence) Kind() Kind    { return KindStemsSequence }
func (StarStage) Kind() Kind        { return KindStarStage }
func (Gender) Kind() Kind           { return KindGender }
