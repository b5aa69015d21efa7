package compiler

import (
	"regexp"

	"bazi-backend/internal/condition"
)

// Deities category (神煞). Pillar-addressed forms stand above the
// any-pillar forms, absence above presence, and the bare name list
// last. Every captured name is validated against the deity catalog so
// a match never carries an unknown deity into a tree.
var shenshaMatchers = []clauseMatcher{
	{
		name:  "deity-in-pillar-suffix",
		re:    regexp.MustCompile(`^(` + deityListCls + `)在(` + pillarCls + `)[柱支]$`),
		build: buildDeityInPillarSuffix,
	},
	{
		name:  "pillar-deities-absent",
		re:    regexp.MustCompile(`^(` + pillarCls + `{1,4})柱(?:神煞)?(?:中|里)?无(` + listCls + `)$`),
		build: buildPillarDeitiesAbsent,
	},
	{
		name:  "pillar-deities",
		re:    regexp.MustCompile(`^(` + pillarCls + `{1,4})柱(?:神煞)?(?:中|里)?[有带见为是](` + listCls + `)$`),
		build: buildPillarDeities,
	},
	{
		name:  "any-pillar-deities-absent",
		re:    regexp.MustCompile(`^(?:四柱|命局|八字|命)?(?:神煞)?(?:中|里)?[无不][带见]?(` + listCls + `)$`),
		build: buildAnyPillarDeitiesAbsent,
	},
	{
		name:  "any-pillar-deities",
		re:    regexp.MustCompile(`^(?:四柱|命局|八字)?(?:神煞)?(?:中|里)?[有带见](` + listCls + `)$`),
		build: buildAnyPillarDeities,
	},
	{
		name:  "deities-carried",
		re:    regexp.MustCompile(`^命带(` + listCls + `)$`),
		build: buildAnyPillarDeities,
	},
	{
		name:  "bare-deity-list",
		re:    regexp.MustCompile(`^(` + deityListCls + `)$`),
		build: buildAnyPillarDeities,
	},
}

func buildDeityInPillarSuffix(m []string) (condition.Node, error) {
	names, alt, err := parseDeities(m[1])
	if err != nil {
		return nil, err
	}
	p, err := parsePillar(m[2])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, d := range names {
		kids[i] = condition.DeitiesInPillar{Pillar: p, Name: d}
	}
	return combine(kids, alt), nil
}

// buildPillarDeitiesAbsent conjoins a Not per pillar and deity: deities
// have no count leaf, so absence is the negated presence.
func buildPillarDeitiesAbsent(m []string) (condition.Node, error) {
	ps, err := parsePillars(m[1])
	if err != nil {
		return nil, err
	}
	names, _, err := parseDeities(m[2])
	if err != nil {
		return nil, err
	}
	var kids []condition.Node
	for _, d := range names {
		for _, p := range ps {
			kids = append(kids, condition.Not{Child: condition.DeitiesInPillar{Pillar: p, Name: d}})
		}
	}
	return allOf(kids), nil
}

// buildPillarDeities reads 年月柱有X as "X sits on one of those
// pillars": presence over a pillar set disjoins.
func buildPillarDeities(m []string) (condition.Node, error) {
	ps, err := parsePillars(m[1])
	if err != nil {
		return nil, err
	}
	names, alt, err := parseDeities(m[2])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, d := range names {
		per := make([]condition.Node, len(ps))
		for j, p := range ps {
			per[j] = condition.DeitiesInPillar{Pillar: p, Name: d}
		}
		kids[i] = anyOf(per)
	}
	return combine(kids, alt), nil
}

func buildAnyPillarDeitiesAbsent(m []string) (condition.Node, error) {
	names, _, err := parseDeities(m[1])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, d := range names {
		kids[i] = condition.Not{Child: condition.DeitiesInAny{Name: d}}
	}
	return allOf(kids), nil
}

func buildAnyPillarDeities(m []string) (condition.Node, error) {
	names, alt, err := parseDeities(m[1])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(names))
	for i, d := range names {
		kids[i] = condition.DeitiesInAny{Name: d}
	}
	return combine(kids, alt), nil
}
