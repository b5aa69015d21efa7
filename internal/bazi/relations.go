package bazi

// Relation names the fixed stem/branch relations a rule can reference.
// Serialized values are stable; the store round-trips them verbatim.
type Relation string

const (
	RelationSheng Relation = "sheng" // 生: a's element generates b's
	RelationKe    Relation = "ke"    // 克: a's element controls b's
	RelationHe    Relation = "he"    // 合: stem 五合 or branch 六合
	RelationSanhe Relation = "sanhe" // 三合: both branches in one trine group
	RelationChong Relation = "chong" // 冲: branch six-conflict
	RelationXing  Relation = "xing"  // 刑: branch punishment
	RelationHai   Relation = "hai"   // 害: branch harm
	RelationPo    Relation = "po"    // 破: branch break
)

// RelationFromWord maps the single-character relation words that appear in
// rule text to Relation values.
var RelationFromWord = map[string]Relation{
	"生": RelationSheng,
	"克": RelationKe,
	"合": RelationHe,
	"冲": RelationChong,
	"刑": RelationXing,
	"害": RelationHai,
	"破": RelationPo,
}

// Five-element generation and control cycles.
var (
	elementSheng = map[string]string{"木": "火", "火": "土", "土": "金", "金": "水", "水": "木"}
	elementKe    = map[string]string{"木": "土", "土": "水", "水": "火", "火": "金", "金": "木"}
)

// ElementGenerates reports whether element a generates element b (相生).
func ElementGenerates(a, b string) bool { return elementSheng[a] == b && b != "" }

// ElementControls reports whether element a controls element b (相克).
func ElementControls(a, b string) bool { return elementKe[a] == b && b != "" }

// The stem five-combinations (天干五合): 甲己 乙庚 丙辛 丁壬 戊癸.
var stemHe = pairSet("甲己", "乙庚", "丙辛", "丁壬", "戊癸")

// Branch pair tables. All symmetric.
var (
	branchChong = pairSet("子午", "丑未", "寅申", "卯酉", "辰戌", "巳亥")
	branchLiuhe = pairSet("子丑", "寅亥", "卯戌", "辰酉", "巳申", "午未")
	branchHai   = pairSet("子未", "丑午", "寅巳", "卯辰", "申亥", "酉戌")
	branchPo    = pairSet("子酉", "午卯", "辰丑", "戌未", "寅亥", "巳申")

	// 刑 as symmetric membership: the 寅巳申 and 丑戌未 triangles, 子卯,
	// and the four self-punishing branches.
	branchXing = pairSet("寅巳", "巳申", "申寅", "丑戌", "戌未", "未丑", "子卯", "辰辰", "午午", "酉酉", "亥亥")

	// 三合 trine groups, keyed by member branch.
	sanheGroup = map[string]string{
		"申": "申子辰", "子": "申子辰", "辰": "申子辰",
		"亥": "亥卯未", "卯": "亥卯未", "未": "亥卯未",
		"寅": "寅午戌", "午": "寅午戌", "戌": "寅午戌",
		"巳": "巳酉丑", "酉": "巳酉丑", "丑": "巳酉丑",
	}
)

func pairSet(pairs ...string) map[[2]string]bool {
	m := make(map[[2]string]bool, len(pairs)*2)
	for _, p := range pairs {
		r := []rune(p)
		a, b := string(r[0]), string(r[1])
		m[[2]string{a, b}] = true
		m[[2]string{b, a}] = true
	}
	return m
}

// StemsCombine reports whether two stems form a 五合 pair.
func StemsCombine(a, b string) bool { return stemHe[[2]string{a, b}] }

// BranchesRelate reports whether branches a and b stand in the given relation.
// sheng and ke are resolved through the branch elements; the remaining
// relations come from the fixed pair tables.
func BranchesRelate(a, b string, rel Relation) bool {
	switch rel {
	case RelationSheng:
		return ElementGenerates(branchElement[a], branchElement[b])
	case RelationKe:
		return ElementControls(branchElement[a], branchElement[b])
	case RelationHe:
		return branchLiuhe[[2]string{a, b}]
	case RelationSanhe:
		g, ok := sanheGroup[a]
		return ok && a != b && g == sanheGroup[b]
	case RelationChong:
		return branchChong[[2]string{a, b}]
	case RelationXing:
		return branchXing[[2]string{a, b}]
	case RelationHai:
		return branchHai[[2]string{a, b}]
	case RelationPo:
		return branchPo[[2]string{a, b}]
	}
	return false
}

// StemsRelate reports whether stems a and b stand in the given relation.
// Only sheng, ke and he are defined for stems.
func StemsRelate(a, b string, rel Relation) bool {
	switch rel {
	case RelationSheng:
		return ElementGenerates(stemElement[a], stemElement[b])
	case RelationKe:
		return ElementControls(stemElement[a], stemElement[b])
	case RelationHe:
		return StemsCombine(a, b)
	}
	return false
}
