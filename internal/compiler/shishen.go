package compiler

import (
	"regexp"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
)

// Ten-gods category (十神). Pillar-addressed templates stand above the
// whole-chart counted and presence templates that would otherwise
// swallow them; the bare name list comes last.
var shishenMatchers = []clauseMatcher{
	{
		name:  "star-fortune-stage",
		re:    regexp.MustCompile(`^(` + pillarCls + `)柱星运(?:处于|为|是)?(` + listCls + `)$`),
		build: buildStarFortuneStage,
	},
	{
		name:  "main-star-in-pillar",
		re:    regexp.MustCompile(`^(` + pillarCls + `{1,4})柱?(?:主星|十神)[是为有](` + listCls + `)$`),
		build: buildMainStarInPillar,
	},
	{
		name:  "sub-stars-in-pillar-absent",
		re:    regexp.MustCompile(`^(` + pillarCls + `{1,4})[柱支]?(?:副星|藏干)(?:中|里)?无(` + listCls + `)$`),
		build: buildSubStarsAbsent,
	},
	{
		name:  "sub-stars-in-pillar",
		re:    regexp.MustCompile(`^(` + pillarCls + `{1,4})[柱支]?(?:副星|藏干)(?:中|里)?[有含见是为](` + listCls + `)$`),
		build: buildSubStarsPresent,
	},
	{
		name:  "pillar-stars-absent",
		re:    regexp.MustCompile(`^(` + pillarCls + `{1,4})柱无(` + listCls + `)$`),
		build: buildPillarStarsAbsent,
	},
	{
		name:  "pillar-stars-any",
		re:    regexp.MustCompile(`^(` + pillarCls + `{1,4})柱[有见带](` + listCls + `)$`),
		build: buildPillarStarsAny,
	},
	{
		name:  "stem-reveal",
		re:    regexp.MustCompile(`^天干透出?(` + listCls + `)$`),
		build: buildStemReveal,
	},
	{
		name:  "star-count-range",
		re:    regexp.MustCompile(`^(` + starListCls + `)(?:的)?数量[为是](` + numCls + `)[-~～—至](` + numCls + `)$`),
		build: buildStarCountRange,
	},
	{
		name:  "star-count-eq",
		re:    regexp.MustCompile(`^(` + starListCls + `)(?:的)?数量[为是](` + numCls + `)个?$`),
		build: buildStarCountEq,
	},
	{
		name:  "stars-counted-prefix",
		re:    regexp.MustCompile(`^(?:命局|八字|四柱|全局)(?:中|里)?[有见](` + numCls + `)个(?:以上)?(` + listCls + `)$`),
		build: buildStarsCountedPrefix,
	},
	{
		name:  "stars-counted-suffix",
		re:    regexp.MustCompile(`^(` + starListCls + `)(` + numCls + `)个(以上|以下)?$`),
		build: buildStarsCountedSuffix,
	},
	{
		name:  "stars-absent",
		re:    regexp.MustCompile(`^(?:命局|八字|四柱)?(?:中|里)?无(` + listCls + `)$`),
		build: buildStarsAbsent,
	},
	{
		name:  "stars-present",
		re:    regexp.MustCompile(`^(?:命局|八字|四柱)?(?:中|里)?[有见带](` + listCls + `)$`),
		build: buildStarsPresent,
	},
	{
		name:  "bare-star-list",
		re:    regexp.MustCompile(`^(` + starListCls + `)$`),
		build: buildStarsPresent1,
	},
}

func buildStarFortuneStage(m []string) (condition.Node, error) {
	p, err := parsePillar(m[1])
	if err != nil {
		return nil, err
	}
	stages, _, err := parseStages(m[2])
	if err != nil {
		return nil, err
	}
	return condition.StarStage{Pillar: p, Part: condition.PartFortune, Stages: stages}, nil
}

// buildMainStarInPillar disjoins over both pillars and stars: a pillar
// carries exactly one main star, so a list can only mean alternatives.
func buildMainStarInPillar(m []string) (condition.Node, error) {
	ps, err := parsePillars(m[1])
	if err != nil {
		return nil, err
	}
	stars, _, err := parseStars(m[2])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, 0, len(ps)*len(stars))
	for _, p := range ps {
		for _, s := range stars {
			kids = append(kids, condition.MainStarInPillar{Pillar: p, Eq: s})
		}
	}
	return anyOf(kids), nil
}

func buildSubStarsAbsent(m []string) (condition.Node, error) {
	ps, err := parsePillars(m[1])
	if err != nil {
		return nil, err
	}
	stars, _, err := parseStars(m[2])
	if err != nil {
		return nil, err
	}
	return condition.TenGodsSub{Names: stars, Pillars: ps, Bounds: condition.Exactly(0)}, nil
}

func buildSubStarsPresent(m []string) (condition.Node, error) {
	ps, err := parsePillars(m[1])
	if err != nil {
		return nil, err
	}
	stars, alt, err := parseStars(m[2])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(stars))
	for i, s := range stars {
		kids[i] = condition.TenGodsSub{Names: []string{s}, Pillars: ps}
	}
	return combine(kids, alt), nil
}

// buildPillarStarsAbsent requires every listed star gone from the
// pillars, in main and sub positions both.
func buildPillarStarsAbsent(m []string) (condition.Node, error) {
	ps, err := parsePillars(m[1])
	if err != nil {
		return nil, err
	}
	stars, _, err := parseStars(m[2])
	if err != nil {
		return nil, err
	}
	var kids []condition.Node
	for _, s := range stars {
		for _, p := range ps {
			kids = append(kids, condition.Not{Child: condition.MainStarInPillar{Pillar: p, Eq: s}})
		}
	}
	kids = append(kids, condition.TenGodsSub{Names: stars, Pillars: ps, Bounds: condition.Exactly(0)})
	return allOf(kids), nil
}

func buildPillarStarsAny(m []string) (condition.Node, error) {
	ps, err := parsePillars(m[1])
	if err != nil {
		return nil, err
	}
	stars, alt, err := parseStars(m[2])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(stars))
	for i, s := range stars {
		per := make([]condition.Node, 0, len(ps)+1)
		for _, p := range ps {
			per = append(per, condition.MainStarInPillar{Pillar: p, Eq: s})
		}
		per = append(per, condition.TenGodsSub{Names: []string{s}, Pillars: ps})
		kids[i] = anyOf(per)
	}
	return combine(kids, alt), nil
}

// buildStemReveal checks the visible stems outside the day pillar,
// whose main star is the day master itself.
func buildStemReveal(m []string) (condition.Node, error) {
	stars, alt, err := parseStars(m[1])
	if err != nil {
		return nil, err
	}
	visible := []bazi.PillarKey{bazi.PillarYear, bazi.PillarMonth, bazi.PillarHour}
	kids := make([]condition.Node, len(stars))
	for i, s := range stars {
		per := make([]condition.Node, len(visible))
		for j, p := range visible {
			per[j] = condition.MainStarInPillar{Pillar: p, Eq: s}
		}
		kids[i] = anyOf(per)
	}
	return combine(kids, alt), nil
}

func buildStarCountRange(m []string) (condition.Node, error) {
	stars, _, err := parseStars(m[1])
	if err != nil {
		return nil, err
	}
	lo, err := parseNum(m[2])
	if err != nil {
		return nil, err
	}
	hi, err := parseNum(m[3])
	if err != nil {
		return nil, err
	}
	return condition.TenGodsTotal{Names: stars, Bounds: condition.Between(lo, hi)}, nil
}

func buildStarCountEq(m []string) (condition.Node, error) {
	stars, _, err := parseStars(m[1])
	if err != nil {
		return nil, err
	}
	n, err := parseNum(m[2])
	if err != nil {
		return nil, err
	}
	return condition.TenGodsTotal{Names: stars, Bounds: condition.Exactly(n)}, nil
}

func buildStarsCountedPrefix(m []string) (condition.Node, error) {
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

// buildStarsCountedSuffix reads X N个 as "at least N" like the other
// counting idioms; only 数量为N states an exact count.
func buildStarsCountedSuffix(m []string) (condition.Node, error) {
	stars, _, err := parseStars(m[1])
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
	return condition.TenGodsTotal{Names: stars, Bounds: b}, nil
}

func buildStarsAbsent(m []string) (condition.Node, error) {
	stars, _, err := parseStars(m[1])
	if err != nil {
		return nil, err
	}
	return condition.TenGodsTotal{Names: stars, Bounds: condition.Exactly(0)}, nil
}

func buildStarsPresent(m []string) (condition.Node, error) {
	stars, alt, err := parseStars(m[1])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(stars))
	for i, s := range stars {
		kids[i] = condition.TenGodsTotal{Names: []string{s}}
	}
	return combine(kids, alt), nil
}

// buildStarsPresent1 is the bare-list form, same meaning as 有X.
func buildStarsPresent1(m []string) (condition.Node, error) {
	return buildStarsPresent(m)
}
