package condition

import (
	"errors"
	"fmt"

	"bazi-backend/internal/bazi"
)

// ErrNoPredicate reports a node kind the evaluator has no predicate
// for. It means the stored trees and this binary disagree about the
// schema; callers must abort their whole batch instead of treating the
// node as false.
var ErrNoPredicate = errors.New("condition: no predicate for kind")

type predicate func(n Node, c *bazi.Chart) (bool, error)

// predicates is the closed dispatch table for leaf kinds. Combinators
// are handled structurally in Evaluate.
var predicates = map[Kind]predicate{
	KindPillarEquals:     evalPillarEquals,
	KindPillarIn:         evalPillarIn,
	KindMainStarInPillar: evalMainStarInPillar,
	KindTenGodsSub:       evalTenGodsSub,
	KindTenGodsTotal:     evalTenGodsTotal,
	KindBranchesCount:    evalBranchesCount,
	KindElementTotal:     evalElementTotal,
	KindDeitiesInPillar:  evalDeitiesInPillar,
	KindDeitiesInAny:     evalDeitiesInAny,
	KindPillarRelation:   evalPillarRelation,
	KindWangshuai:        evalWangshuai,
	KindXishen:           evalXishen,
	KindJishen:           evalJishen,
	KindNayinEquals:      evalNayinEquals,
	KindStemsSequence:    evalStemsSequence,
	KindStarStage:        evalStarStage,
	KindGender:           evalGender,
}

// Evaluate runs a tree against a completed chart. It is pure: neither
// the tree nor the chart is mutated. A value that is simply absent from
// the chart makes the leaf false; a node the table does not know makes
// the whole evaluation fail with ErrNoPredicate.
func Evaluate(n Node, c *bazi.Chart) (bool, error) {
	switch t := n.(type) {
	case nil:
		return false, errors.New("condition: evaluate nil node")
	case All:
		for _, child := range t.Children {
			ok, err := Evaluate(child, c)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Any:
		for _, child := range t.Children {
			ok, err := Evaluate(child, c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Evaluate(t.Child, c)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}

	p, ok := predicates[n.Kind()]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNoPredicate, n.Kind())
	}
	return p(n, c)
}

// pillarOf resolves a pillar key against the chart. A key outside the
// four pillars is a malformed tree, not a false condition.
func pillarOf(c *bazi.Chart, k bazi.PillarKey) (*bazi.Pillar, error) {
	p := c.Pillar(k)
	if p == nil {
		return nil, fmt.Errorf("condition: unknown pillar %q", k)
	}
	return p, nil
}

func evalPillarEquals(n Node, c *bazi.Chart) (bool, error) {
	t := n.(PillarEquals)
	p, err := pillarOf(c, t.Pillar)
	if err != nil {
		return false, err
	}
	gz := p.GanZhi()
	for _, v := range t.Values {
		if gz == v {
			return true, nil
		}
	}
	return false, nil
}

func evalPillarIn(n Node, c *bazi.Chart) (bool, error) {
	t := n.(PillarIn)
	p, err := pillarOf(c, t.Pillar)
	if err != nil {
		return false, err
	}
	var have string
	switch t.Part {
	case PartStem:
		have = p.Stem
	case PartBranch:
		have = p.Branch
	default:
		return false, fmt.Errorf("condition: unknown pillar part %q", t.Part)
	}
	for _, v := range t.Values {
		if have == v {
			return true, nil
		}
	}
	return false, nil
}

func evalMainStarInPillar(n Node, c *bazi.Chart) (bool, error) {
	t := n.(MainStarInPillar)
	p, err := pillarOf(c, t.Pillar)
	if err != nil {
		return false, err
	}
	return p.MainStar == t.Eq, nil
}

func evalTenGodsSub(n Node, c *bazi.Chart) (bool, error) {
	t := n.(TenGodsSub)
	for _, k := range t.Pillars {
		if !k.Valid() {
			return false, fmt.Errorf("condition: unknown pillar %q", k)
		}
	}
	return t.Match(c.CountTenGodsSub(t.Names, t.Pillars)), nil
}

func evalTenGodsTotal(n Node, c *bazi.Chart) (bool, error) {
	t := n.(TenGodsTotal)
	return t.Match(c.CountTenGodsTotal(t.Names)), nil
}

func evalBranchesCount(n Node, c *bazi.Chart) (bool, error) {
	t := n.(BranchesCount)
	return t.Match(c.CountBranches(t.Names)), nil
}

func evalElementTotal(n Node, c *bazi.Chart) (bool, error) {
	t := n.(ElementTotal)
	total := 0
	for _, el := range t.Names {
		total += c.ElementCount(el)
	}
	return t.Match(total), nil
}

func evalDeitiesInPillar(n Node, c *bazi.Chart) (bool, error) {
	t := n.(DeitiesInPillar)
	p, err := pillarOf(c, t.Pillar)
	if err != nil {
		return false, err
	}
	return p.HasDeity(t.Name), nil
}

func evalDeitiesInAny(n Node, c *bazi.Chart) (bool, error) {
	t := n.(DeitiesInAny)
	return c.HasDeityAny(t.Name), nil
}

func evalPillarRelation(n Node, c *bazi.Chart) (bool, error) {
	t := n.(PillarRelation)
	a, err := pillarOf(c, t.PillarA)
	if err != nil {
		return false, err
	}
	b, err := pillarOf(c, t.PillarB)
	if err != nil {
		return false, err
	}
	if t.Part == PartStem {
		return bazi.StemsRelate(a.Stem, b.Stem, t.Relation), nil
	}
	return bazi.BranchesRelate(a.Branch, b.Branch, t.Relation), nil
}

func evalWangshuai(n Node, c *bazi.Chart) (bool, error) {
	t := n.(Wangshuai)
	for _, s := range t.States {
		if c.Strength == s {
			return true, nil
		}
	}
	return false, nil
}

func evalXishen(n Node, c *bazi.Chart) (bool, error) {
	t := n.(Xishen)
	return c.Favors(t.Name), nil
}

func evalJishen(n Node, c *bazi.Chart) (bool, error) {
	t := n.(Jishen)
	return c.Dislikes(t.Name), nil
}

func evalNayinEquals(n Node, c *bazi.Chart) (bool, error) {
	t := n.(NayinEquals)
	p, err := pillarOf(c, t.Pillar)
	if err != nil {
		return false, err
	}
	return p.NaYin == t.Nayin, nil
}

// evalStemsSequence looks for the named run among the four stems in
// year-to-hour order.
func evalStemsSequence(n Node, c *bazi.Chart) (bool, error) {
	t := n.(StemsSequence)
	if len(t.Names) == 0 {
		return false, nil
	}
	stems := c.StemsInOrder()
	for start := 0; start+len(t.Names) <= len(stems); start++ {
		run := true
		for i, name := range t.Names {
			if stems[start+i] != name {
				run = false
				break
			}
		}
		if run {
			return true, nil
		}
	}
	return false, nil
}

func evalStarStage(n Node, c *bazi.Chart) (bool, error) {
	t := n.(StarStage)
	p, err := pillarOf(c, t.Pillar)
	if err != nil {
		return false, err
	}
	var have string
	switch t.Part {
	case PartFortune:
		have = p.StarFortune
	case PartSitting:
		have = p.SelfSitting
	default:
		return false, fmt.Errorf("condition: unknown stage part %q", t.Part)
	}
	for _, s := range t.Stages {
		if have == s {
			return true, nil
		}
	}
	return false, nil
}

func evalGender(n Node, c *bazi.Chart) (bool, error) {
	t := n.(Gender)
	return c.Gender == t.Value, nil
}
