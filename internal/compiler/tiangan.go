package compiler

import (
	"regexp"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
)

// Stems category (天干). Relations and the ordered-run template stand
// before the presence forms; a bare contiguous run compiles to a
// sequence like the dizhi special case, while a separated bare list
// means presence.
var tianganMatchers = []clauseMatcher{
	{
		name:  "stem-combine",
		re:    regexp.MustCompile(`^(` + pillarCls + `)[柱干]?与(` + pillarCls + `)[柱干]?(?:天干)?相?合$`),
		build: buildStemCombine,
	},
	{
		name:  "stem-sequence",
		re:    regexp.MustCompile(`^天干(` + stemCls + `{2,4})依次(?:相连|排列|排开)?$`),
		build: buildStemSequence,
	},
	{
		name:  "pillar-stem-eq",
		re:    regexp.MustCompile(`^(` + pillarCls + `)干[为是](` + listCls + `)$`),
		build: buildPillarStemEq,
	},
	{
		name:  "stems-absent",
		re:    regexp.MustCompile(`^(?:四柱)?天干无(` + listCls + `)$`),
		build: buildStemsAbsent,
	},
	{
		name:  "stems-present",
		re:    regexp.MustCompile(`^(?:四柱)?天干(?:中|里)?[有透见含]出?(` + listCls + `)$`),
		build: buildStemsPresent,
	},
	{
		name:  "bare-stem-run",
		re:    regexp.MustCompile(`^` + stemCls + `{2,4}$`),
		build: buildBareStemRun,
	},
	{
		name:  "bare-stem-list",
		re:    regexp.MustCompile(`^` + stemCls + `(?:[、，,/\s或]+` + stemCls + `)*$`),
		build: buildBareStemList,
	},
}

func buildStemCombine(m []string) (condition.Node, error) {
	a, err := parsePillar(m[1])
	if err != nil {
		return nil, err
	}
	b, err := parsePillar(m[2])
	if err != nil {
		return nil, err
	}
	return condition.PillarRelation{
		PillarA:  a,
		PillarB:  b,
		Relation: bazi.RelationHe,
		Part:     condition.PartStem,
	}, nil
}

func buildStemSequence(m []string) (condition.Node, error) {
	names, err := explode([]string{m[1]}, bazi.IsStem, "stem")
	if err != nil {
		return nil, err
	}
	return condition.StemsSequence{Names: names}, nil
}

func buildPillarStemEq(m []string) (condition.Node, error) {
	p, err := parsePillar(m[1])
	if err != nil {
		return nil, err
	}
	values, _, err := parseStems(m[2])
	if err != nil {
		return nil, err
	}
	return condition.PillarIn{Pillar: p, Part: condition.PartStem, Values: values}, nil
}

// stemAnywhere disjoins one stem over the four pillar stems. There is
// no stem-count leaf, so absence negates this instead of counting.
func stemAnywhere(stem string) condition.Node {
	kids := make([]condition.Node, len(bazi.PillarKeys))
	for i, p := range bazi.PillarKeys {
		kids[i] = condition.PillarIn{Pillar: p, Part: condition.PartStem, Values: []string{stem}}
	}
	return condition.Any{Children: kids}
}

func buildStemsAbsent(m []string) (condition.Node, error) {
	names, _, err := parseStems(m[1])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, s := range names {
		kids[i] = condition.Not{Child: stemAnywhere(s)}
	}
	return allOf(kids), nil
}

func buildStemsPresent(m []string) (condition.Node, error) {
	names, alt, err := parseStems(m[1])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, s := range names {
		kids[i] = stemAnywhere(s)
	}
	return combine(kids, alt), nil
}

// buildBareStemRun keeps a contiguous run ordered, matching the
// sequence the 依次 form spells out.
func buildBareStemRun(m []string) (condition.Node, error) {
	names, err := explode([]string{m[0]}, bazi.IsStem, "stem")
	if err != nil {
		return nil, err
	}
	return condition.StemsSequence{Names: names}, nil
}

func buildBareStemList(m []string) (condition.Node, error) {
	names, alt, err := parseStems(m[0])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, s := range names {
		kids[i] = stemAnywhere(s)
	}
	return combine(kids, alt), nil
}
