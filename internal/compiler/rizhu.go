package compiler

import (
	"fmt"
	"regexp"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
)

// Day-pillar category (日柱). The prefixed forms come first; the bare
// sexagenary list is the catch-all the sheets mostly use. 日坐 followed
// by a stage name must be tried before 日坐 followed by a branch, and
// both before the bare list, or the stage words would never be reached.
var rizhuMatchers = []clauseMatcher{
	{
		name:  "day-nayin",
		re:    regexp.MustCompile(`^日柱?纳音[为是](` + nayinListCls + `)$`),
		build: buildDayNayin,
	},
	{
		name:  "day-sitting-stage",
		re:    regexp.MustCompile(`^日柱?自?坐((?:` + bazi.StagePattern + `)(?:[、，,/\s或]+(?:` + bazi.StagePattern + `))*)$`),
		build: buildDaySittingStage,
	},
	{
		name:  "day-sitting-branch",
		re:    regexp.MustCompile(`^日柱?自?坐(` + branchCls + `+)$`),
		build: buildDayBranch,
	},
	{
		name:  "day-stem",
		re:    regexp.MustCompile(`^日干[为是有](` + listCls + `)$`),
		build: buildDayStem,
	},
	{
		name:  "day-branch",
		re:    regexp.MustCompile(`^日支[为是有](` + listCls + `)$`),
		build: buildDayBranch1,
	},
	{
		name:  "day-pillar-eq",
		re:    regexp.MustCompile(`^日柱[为是](` + listCls + `)$`),
		build: buildDayPillarEq,
	},
	{
		name:  "bare-ganzhi-list",
		re:    regexp.MustCompile(`^(?:` + stemCls + branchCls + `)(?:[、，,/\s或]*` + stemCls + branchCls + `)*$`),
		build: buildBareGanZhiList,
	},
}

func buildDayNayin(m []string) (condition.Node, error) {
	tokens, _ := valueList(m[1])
	kids := make([]condition.Node, len(tokens))
	for i, n := range tokens {
		if !bazi.IsNaYin(n) {
			return nil, fmt.Errorf("unknown nayin %q", n)
		}
		kids[i] = condition.NayinEquals{Pillar: bazi.PillarDay, Nayin: n}
	}
	// One pillar has one sound element, so a list is alternatives.
	return anyOf(kids), nil
}

func buildDaySittingStage(m []string) (condition.Node, error) {
	stages, _, err := parseStages(m[1])
	if err != nil {
		return nil, err
	}
	return condition.StarStage{Pillar: bazi.PillarDay, Part: condition.PartSitting, Stages: stages}, nil
}

func buildDayBranch(m []string) (condition.Node, error) {
	values, _, err := parseBranches(m[1])
	if err != nil {
		return nil, err
	}
	return condition.PillarIn{Pillar: bazi.PillarDay, Part: condition.PartBranch, Values: values}, nil
}

func buildDayStem(m []string) (condition.Node, error) {
	values, _, err := parseStems(m[1])
	if err != nil {
		return nil, err
	}
	return condition.PillarIn{Pillar: bazi.PillarDay, Part: condition.PartStem, Values: values}, nil
}

func buildDayBranch1(m []string) (condition.Node, error) {
	return buildDayBranch(m)
}

func buildDayPillarEq(m []string) (condition.Node, error) {
	values, err := parseGanZhi(m[1])
	if err != nil {
		return nil, err
	}
	return condition.PillarEquals{Pillar: bazi.PillarDay, Values: values}, nil
}

// buildBareGanZhiList handles the dominant sheet form: a plain list of
// day pillars like 甲子、丙寅, meaning the day pillar is one of them.
func buildBareGanZhiList(m []string) (condition.Node, error) {
	values, err := parseGanZhi(m[0])
	if err != nil {
		return nil, err
	}
	return condition.PillarEquals{Pillar: bazi.PillarDay, Values: values}, nil
}
