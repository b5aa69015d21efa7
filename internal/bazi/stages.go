package bazi

import "strings"

// The twelve life stages (十二长生) in cycle order.
const StageNames = "长生沐浴冠带临官帝旺衰病死墓绝胎养"

var stageList = []string{
	"长生", "沐浴", "冠带", "临官", "帝旺", "衰",
	"病", "死", "墓", "绝", "胎", "养",
}

// changshengBranch gives the branch where each stem's 长生 stage sits.
// Yang stems walk the branches forward from there, yin stems backward.
var changshengBranch = map[string]string{
	"甲": "亥", "乙": "午",
	"丙": "寅", "丁": "酉",
	"戊": "寅", "己": "酉",
	"庚": "巳", "辛": "子",
	"壬": "申", "癸": "卯",
}

// StageList returns the twelve stage names in cycle order.
func StageList() []string { return append([]string(nil), stageList...) }

// IsStage reports whether name is one of the twelve stage names.
func IsStage(name string) bool {
	for _, s := range stageList {
		if s == name {
			return true
		}
	}
	return false
}

// LifeStage returns the stage of stem over branch, or "" for invalid input.
func LifeStage(stem, branch string) string {
	start, ok := changshengBranch[stem]
	if !ok || !IsBranch(branch) {
		return ""
	}
	si := branchIndex[start]
	bi := branchIndex[branch]
	var steps int
	if StemYang(stem) {
		steps = (bi - si + 12) % 12
	} else {
		steps = (si - bi + 12) % 12
	}
	return stageList[steps]
}

// stagePattern is the alternation of stage names for recognizers, longest
// names first so that two-character stages win over single characters.
func stagePattern() string {
	parts := make([]string, 0, len(stageList))
	for _, s := range stageList {
		if len([]rune(s)) == 2 {
			parts = append(parts, s)
		}
	}
	for _, s := range stageList {
		if len([]rune(s)) == 1 {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "|")
}

// StagePattern exposes the regexp alternation of the twelve stage names.
var StagePattern = stagePattern()
