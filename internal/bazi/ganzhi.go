// Package bazi holds the Four-Pillars domain model: the sexagenary
// vocabulary (stems, branches, elements), the fixed relation tables the
// evaluator consults, and the chart structure produced by the external
// chart calculator.
package bazi

import "strings"

// The ten heavenly stems and twelve earthly branches, in canonical order.
const (
	Stems    = "甲乙丙丁戊己庚辛壬癸"
	Branches = "子丑寅卯辰巳午未申酉戌亥"
	Elements = "金木水火土"
)

var (
	stemList   = strings.Split(Stems, "")
	branchList = strings.Split(Branches, "")

	stemIndex   = indexOf(stemList)
	branchIndex = indexOf(branchList)

	stemElement = map[string]string{
		"甲": "木", "乙": "木",
		"丙": "火", "丁": "火",
		"戊": "土", "己": "土",
		"庚": "金", "辛": "金",
		"壬": "水", "癸": "水",
	}

	branchElement = map[string]string{
		"子": "水", "丑": "土", "寅": "木", "卯": "木",
		"辰": "土", "巳": "火", "午": "火", "未": "土",
		"申": "金", "酉": "金", "戌": "土", "亥": "水",
	}
)

func indexOf(list []string) map[string]int {
	m := make(map[string]int, len(list))
	for i, s := range list {
		m[s] = i
	}
	return m
}

// StemList returns the ten stems in canonical order.
func StemList() []string { return append([]string(nil), stemList...) }

// BranchList returns the twelve branches in canonical order.
func BranchList() []string { return append([]string(nil), branchList...) }

// IsStem reports whether s is one of the ten heavenly stems.
func IsStem(s string) bool { _, ok := stemIndex[s]; return ok }

// IsBranch reports whether s is one of the twelve earthly branches.
func IsBranch(s string) bool { _, ok := branchIndex[s]; return ok }

// IsElement reports whether s is one of the five elements.
func IsElement(s string) bool { return strings.Contains(Elements, s) && s != "" && len([]rune(s)) == 1 }

// StemElement returns the element of a stem ("" if s is not a stem).
func StemElement(s string) string { return stemElement[s] }

// BranchElement returns the element of a branch ("" if s is not a branch).
func BranchElement(s string) string { return branchElement[s] }

// StemYang reports whether a stem is yang (甲丙戊庚壬). Unknown stems are false.
func StemYang(s string) bool {
	i, ok := stemIndex[s]
	return ok && i%2 == 0
}

// BranchYang reports whether a branch is yang (子寅辰午申戌).
func BranchYang(b string) bool {
	i, ok := branchIndex[b]
	return ok && i%2 == 0
}

// IsGanZhi reports whether s is a valid stem+branch pair such as 甲子.
// The sexagenary cycle only pairs stems and branches of equal polarity.
func IsGanZhi(s string) bool {
	r := []rune(s)
	if len(r) != 2 {
		return false
	}
	stem, branch := string(r[0]), string(r[1])
	if !IsStem(stem) || !IsBranch(branch) {
		return false
	}
	return stemIndex[stem]%2 == branchIndex[branch]%2
}

// SplitGanZhi splits a stem+branch pair into its parts.
// ok is false when s is not a valid pair.
func SplitGanZhi(s string) (stem, branch string, ok bool) {
	if !IsGanZhi(s) {
		return "", "", false
	}
	r := []rune(s)
	return string(r[0]), string(r[1]), true
}
