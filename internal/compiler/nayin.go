package compiler

import (
	"regexp"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
)

// Sound-element category (纳音). The pillar-addressed form first, then
// the any-pillar form. A bare sound-element name without a verb is left
// unmatched on purpose: the sheets never say which pillar it targets.
var nayinMatchers = []clauseMatcher{
	{
		name:  "pillar-nayin",
		re:    regexp.MustCompile(`^(` + pillarCls + `)柱?纳音[为是](` + nayinListCls + `)$`),
		build: buildPillarNayin,
	},
	{
		name:  "any-pillar-nayin",
		re:    regexp.MustCompile(`^(?:四柱)?纳音(?:中|里)?[有含见](` + nayinListCls + `)$`),
		build: buildAnyPillarNayin,
	},
}

func buildPillarNayin(m []string) (condition.Node, error) {
	p, err := parsePillar(m[1])
	if err != nil {
		return nil, err
	}
	tokens, _ := valueList(m[2])
	kids := make([]condition.Node, len(tokens))
	for i, n := range tokens {
		kids[i] = condition.NayinEquals{Pillar: p, Nayin: n}
	}
	// One pillar, one sound element: lists are alternatives.
	return anyOf(kids), nil
}

func buildAnyPillarNayin(m []string) (condition.Node, error) {
	tokens, alt := valueList(m[1])
	kids := make([]condition.Node, len(tokens))
	for i, n := range tokens {
		per := make([]condition.Node, len(bazi.PillarKeys))
		for j, p := range bazi.PillarKeys {
			per[j] = condition.NayinEquals{Pillar: p, Nayin: n}
		}
		kids[i] = anyOf(per)
	}
	return combine(kids, alt), nil
}
