package compiler

import (
	"fmt"
	"regexp"

	"bazi-backend/internal/condition"
)

// Five-elements category (五行). Counted forms with an explicit 数量
// come before the looser N个 suffix, which comes before the bare
// presence and absence forms.
var wuxingMatchers = []clauseMatcher{
	{
		name:  "element-count-range",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?(` + elemCls + `+)的?数量[为是](` + numCls + `)[个位]?\s*[-~～—至](` + numCls + `)[个位]?$`),
		build: buildElementCountRange,
	},
	{
		name:  "element-count-eq",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?(` + elemCls + `+)的?数量[为是](` + numCls + `)[个位]?$`),
		build: buildElementCountEq,
	},
	{
		name:  "element-more-than",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?(` + elemCls + `+)(?:多于|超过|大于)(` + numCls + `)[个位]?$`),
		build: buildElementMoreThan,
	},
	{
		name:  "element-less-than",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?(` + elemCls + `+)(?:少于|不足|小于)(` + numCls + `)[个位]?$`),
		build: buildElementLessThan,
	},
	{
		name:  "element-counted-suffix",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?(` + elemCls + `+)(?:有)?(` + numCls + `)个(以上|以下)?$`),
		build: buildElementCountedSuffix,
	},
	{
		name:  "element-missing",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?缺(` + elemCls + `+)$`),
		build: buildElementMissing,
	},
	{
		name:  "element-present",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?(?:中|里)?[有见](` + elemCls + `+)$`),
		build: buildElementPresent,
	},
	{
		name:  "element-rich",
		re:    regexp.MustCompile(`^(?:五行|八字|命局)?(` + elemCls + `+)(?:旺|多)$`),
		build: buildElementRich,
	},
}

func buildElementCountRange(m []string) (condition.Node, error) {
	els, _, err := parseElements(m[1])
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
	return condition.ElementTotal{Names: els, Bounds: condition.Between(lo, hi)}, nil
}

func buildElementCountEq(m []string) (condition.Node, error) {
	els, _, err := parseElements(m[1])
	if err != nil {
		return nil, err
	}
	n, err := parseNum(m[2])
	if err != nil {
		return nil, err
	}
	return condition.ElementTotal{Names: els, Bounds: condition.Exactly(n)}, nil
}

// 多于/超过 are exclusive, unlike the inclusive 以上.
func buildElementMoreThan(m []string) (condition.Node, error) {
	els, _, err := parseElements(m[1])
	if err != nil {
		return nil, err
	}
	n, err := parseNum(m[2])
	if err != nil {
		return nil, err
	}
	return condition.ElementTotal{Names: els, Bounds: condition.AtLeast(n + 1)}, nil
}

func buildElementLessThan(m []string) (condition.Node, error) {
	els, _, err := parseElements(m[1])
	if err != nil {
		return nil, err
	}
	n, err := parseNum(m[2])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("nothing is below zero")
	}
	return condition.ElementTotal{Names: els, Bounds: condition.AtMost(n - 1)}, nil
}

func buildElementCountedSuffix(m []string) (condition.Node, error) {
	els, _, err := parseElements(m[1])
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
	return condition.ElementTotal{Names: els, Bounds: b}, nil
}

// buildElementMissing sums the listed elements, so 缺金水 is metal and
// water both absent.
func buildElementMissing(m []string) (condition.Node, error) {
	els, _, err := parseElements(m[1])
	if err != nil {
		return nil, err
	}
	return condition.ElementTotal{Names: els, Bounds: condition.Exactly(0)}, nil
}

func buildElementPresent(m []string) (condition.Node, error) {
	els, alt, err := parseElements(m[1])
	if err != nil {
		return nil, err
	}
	kids := make([]condition.Node, len(els))
	for i, el := range els {
		kids[i] = condition.ElementTotal{Names: []string{el}}
	}
	return combine(kids, alt), nil
}

// buildElementRich reads X旺 / X多 as at least three of the eight
// visible characters.
func buildElementRich(m []string) (condition.Node, error) {
	els, _, err := parseElements(m[1])
	if err != nil {
		return nil, err
	}
	return condition.ElementTotal{Names: els, Bounds: condition.AtLeast(3)}, nil
}
