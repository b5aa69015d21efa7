package compiler

import (
	"fmt"
	"regexp"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
)

// Branches category (地支). Relation templates and the counted forms
// come before presence and absence; the two bare runs close the table.
//
// The bare heavenly-stem run is deliberate: some sheet rows under the
// branches tab carry a pure stem sequence (a data-entry slip upstream
// has not resolved). Those rows keep compiling to StemsSequence here
// instead of being silently reinterpreted as branches.
var dizhiMatchers = []clauseMatcher{
	{
		name:  "branch-trine",
		re:    regexp.MustCompile(`^(` + pillarCls + `)[柱支]?与(` + pillarCls + `)[柱支]?(?:地支)?(?:成|构成)?三合$`),
		build: buildBranchTrine,
	},
	{
		name:  "branch-relation",
		re:    regexp.MustCompile(`^(` + pillarCls + `)[柱支]?与(` + pillarCls + `)[柱支]?(?:地支)?相?([冲合刑害破])$`),
		build: buildBranchRelation,
	},
	{
		name:  "branches-seen-count",
		re:    regexp.MustCompile(`^(` + branchCls + `+)(?:四柱|地支|命局|八字)?(?:中|里)?[见有](` + numCls + `)个(以上|以下)?$`),
		build: buildBranchesSeenCount,
	},
	{
		name:  "branches-prefix-count",
		re:    regexp.MustCompile(`^(?:四柱|地支|命局|八字)(?:中|里)?(` + branchCls + `+)[见有](` + numCls + `)个(以上|以下)?$`),
		build: buildBranchesSeenCount,
	},
	{
		name:  "stars-counted",
		re:    regexp.MustCompile(`^(?:再)?(?:有|见)?(` + numCls + `)个(` + starListCls + `)$`),
		build: buildDizhiStarsCounted,
	},
	{
		name:  "pillar-branch-eq",
		re:    regexp.MustCompile(`^(` + pillarCls + `)支[为是](` + listCls + `)$`),
		build: buildPillarBranchEq,
	},
	{
		name:  "branches-absent",
		re:    regexp.MustCompile(`^(?:四柱)?地支无(` + listCls + `)$`),
		build: buildBranchesAbsent,
	},
	{
		name:  "branches-present",
		re:    regexp.MustCompile(`^(?:四柱)?地支(?:中|里)?[有见含](` + listCls + `)$`),
		build: buildBranchesPresent,
	},
	{
		name:  "stem-run-data-entry",
		re:    regexp.MustCompile(`^` + stemCls + `{2,4}$`),
		build: buildDizhiStemRun,
	},
	{
		name:  "bare-branch-list",
		re:    regexp.MustCompile(`^` + branchCls + `(?:[、，,/\s或]*` + branchCls + `)*$`),
		build: buildBareBranchList,
	},
}

func buildBranchTrine(m []string) (condition.Node, error) {
	a, err := parsePillar(m[1])
	if err != nil {
		return nil, err
	}
	b, err := parsePillar(m[2])
	if err != nil {
		return nil, err
	}
	return condition.PillarRelation{PillarA: a, PillarB: b, Relation: bazi.RelationSanhe}, nil
}

func buildBranchRelation(m []string) (condition.Node, error) {
	a, err := parsePillar(m[1])
	if err != nil {
		return nil, err
	}
	b, err := parsePillar(m[2])
	if err != nil {
		return nil, err
	}
	rel, ok := bazi.RelationFromWord[m[3]]
	if !ok {
		return nil, fmt.Errorf("unknown relation %q", m[3])
	}
	return condition.PillarRelation{PillarA: a, PillarB: b, Relation: rel}, nil
}

func buildBranchesSeenCount(m []string) (condition.Node, error) {
	names, _, err := parseBranches(m[1])
	if err != nil {
		return nil, err
	}
	n, err := parseNum(m[2])
	if err != nil {
		return nil, err
	}
	b := condition.AtLeast(n)
	if m[3] == "以下" {
		b = condition.AtMost(n)
	}
	return condition.BranchesCount{Names: names, Bounds: b}, nil
}

// buildDizhiStarsCounted serves the composite rows: after the clause
// split, "子午卯酉四柱见三个，再有一个偏印" leaves the ten-god tail
// with this table.
func buildDizhiStarsCounted(m []string) (condition.Node, error) {
	n, err := parseNum(m[1])
	if err != nil {
		return nil, err
	}
	stars, _, err := parseStars(m[2])
	if err != nil {
		return nil, err
	}
	return condition.TenGodsTotal{Names: stars, Bounds: condition.AtLeast(n)}, nil
}

func buildPillarBranchEq(m []string) (condition.Node, error) {
	p, err := parsePillar(m[1])
	if err != nil {
		return nil, err
	}
	values, _, err := parseBranches(m[2])
	if err != nil {
		return nil, err
	}
	return condition.PillarIn{Pillar: p, Part: condition.PartBranch, Values: values}, nil
}

func buildBranchesAbsent(m []string) (condition.Node, error) {
	names, _, err := parseBranches(m[1])
	if err != nil {
		return nil, err
	}
	return condition.BranchesCount{Names: names, Bounds: condition.Exactly(0)}, nil
}

func buildBranchesPresent(m []string) (condition.Node, error) {
	names, alt, err := parseBranches(m[1])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, b := range names {
		kids[i] = condition.BranchesCount{Names: []string{b}}
	}
	return combine(kids, alt), nil
}

// buildDizhiStemRun preserves the mis-filed stem rows as stem
// sequences; see the table comment.
func buildDizhiStemRun(m []string) (condition.Node, error) {
	names, err := explode([]string{m[0]}, bazi.IsStem, "stem")
	if err != nil {
		return nil, err
	}
	return condition.StemsSequence{Names: names}, nil
}

// buildBareBranchList reads a plain branch list as presence of every
// listed branch, or of any when 或 joins them.
func buildBareBranchList(m []string) (condition.Node, error) {
	names, alt, err := parseBranches(m[0])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, b := range names {
		kids[i] = condition.BranchesCount{Names: []string{b}}
	}
	return combine(kids, alt), nil
}
