package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"bazi-backend/internal/bazi"
)

// Regexp fragments for the fixed vocabularies.
const (
	pillarCls = `[年月日时]`
	stemCls   = `[甲乙丙丁戊己庚辛壬癸]`
	branchCls = `[子丑寅卯辰巳午未申酉戌亥]`
	elemCls   = `[金木水火土]`
	// listCls covers a value list with its in-clause separators.
	listCls = `[^，。；]+`
)

// starAlt alternates every canonical ten-god name and alias, longest
// first for the same reason bazi.DeityPattern sorts:
// two-character names never shadow longer ones here, but sheet aliases
// keep the table honest if one ever grows.
var starAlt = buildAlt(func() []string {
	names := bazi.TenGodList()
	for a := range bazi.TenGodAliases {
		names = append(names, a)
	}
	return names
}())

// nayinAlt alternates the thirty sound-element names.
var nayinAlt = buildAlt(bazi.NaYinNames())

// deityAlt alternates the deity catalog with its aliases.
var deityAlt = "(?:" + bazi.DeityPattern + ")"

// List classes: a vocabulary alternation followed by any number of
// separator+name repeats. They keep counting templates from swallowing
// free text the way listCls would.
var (
	starListCls  = starAlt + `(?:[、，,/\s或]+` + starAlt + `)*`
	nayinListCls = nayinAlt + `(?:[、，,/\s或]+` + nayinAlt + `)*`
	deityListCls = deityAlt + `(?:[、，,/\s或]+` + deityAlt + `)*`
)

func buildAlt(names []string) string {
	sort.Slice(names, func(i, j int) bool {
		li, lj := len([]rune(names[i])), len([]rune(names[j]))
		if li != lj {
			return li > lj
		}
		return names[i] < names[j]
	})
	return "(?:" + strings.Join(names, "|") + ")"
}

// In-clause value separators. 或 marks alternatives; the rest join
// companions that must all hold.
var (
	reAnySep  = regexp.MustCompile(`[、，,/\s或]+`)
	reHardSep = regexp.MustCompile(`[、，,/\s]+`)
)

// valueList splits one captured value expression into tokens. When 或
// appears anywhere in the list the tokens are alternatives; otherwise
// they are companions.
func valueList(s string) (tokens []string, alternatives bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "或") {
		return dropEmpty(reAnySep.Split(s, -1)), true
	}
	return dropEmpty(reHardSep.Split(s, -1)), false
}

func dropEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// explode validates tokens against a single-character vocabulary,
// splitting contiguous runs like 子午卯酉 into their members.
func explode(tokens []string, valid func(string) bool, what string) ([]string, error) {
	var out []string
	for _, tok := range tokens {
		if valid(tok) {
			out = append(out, tok)
			continue
		}
		runes := []rune(tok)
		if len(runes) < 2 {
			return nil, fmt.Errorf("unknown %s %q", what, tok)
		}
		for _, r := range runes {
			if !valid(string(r)) {
				return nil, fmt.Errorf("unknown %s %q", what, tok)
			}
		}
		for _, r := range runes {
			out = append(out, string(r))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s list", what)
	}
	return out, nil
}

// parseStars canonicalizes a ten-god list.
func parseStars(s string) (names []string, alternatives bool, err error) {
	tokens, alt := valueList(s)
	if len(tokens) == 0 {
		return nil, false, fmt.Errorf("empty ten-god list")
	}
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		c, ok := bazi.CanonicalTenGod(tok)
		if !ok {
			return nil, false, fmt.Errorf("unknown ten god %q", tok)
		}
		out[i] = c
	}
	return out, alt, nil
}

// parseDeities canonicalizes a deity list against the fixed catalog.
func parseDeities(s string) (names []string, alternatives bool, err error) {
	tokens, alt := valueList(s)
	if len(tokens) == 0 {
		return nil, false, fmt.Errorf("empty deity list")
	}
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		c, ok := bazi.CanonicalDeity(tok)
		if !ok {
			return nil, false, fmt.Errorf("unknown deity %q", tok)
		}
		out[i] = c
	}
	return out, alt, nil
}

// parseStems validates a stem list, exploding runs like 甲乙丙.
func parseStems(s string) (names []string, alternatives bool, err error) {
	tokens, alt := valueList(s)
	out, err := explode(tokens, bazi.IsStem, "stem")
	return out, alt, err
}

// parseBranches validates a branch list, exploding runs like 子午卯酉.
func parseBranches(s string) (names []string, alternatives bool, err error) {
	tokens, alt := valueList(s)
	out, err := explode(tokens, bazi.IsBranch, "branch")
	return out, alt, err
}

// parseElements validates an element list, exploding runs like 金水.
func parseElements(s string) (names []string, alternatives bool, err error) {
	tokens, alt := valueList(s)
	out, err := explode(tokens, bazi.IsElement, "element")
	return out, alt, err
}

// parseGanZhi validates a sexagenary-pair list. Runs without
// separators (甲子乙丑) split into pairs.
func parseGanZhi(s string) ([]string, error) {
	tokens, _ := valueList(s)
	var out []string
	for _, tok := range tokens {
		if bazi.IsGanZhi(tok) {
			out = append(out, tok)
			continue
		}
		runes := []rune(tok)
		if len(runes) < 4 || len(runes)%2 != 0 {
			return nil, fmt.Errorf("not a stem-branch pair: %q", tok)
		}
		for i := 0; i < len(runes); i += 2 {
			gz := string(runes[i : i+2])
			if !bazi.IsGanZhi(gz) {
				return nil, fmt.Errorf("not a stem-branch pair: %q", gz)
			}
			out = append(out, gz)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty pair list")
	}
	return out, nil
}

// parsePillars turns a run of pillar words (年, 年月, 年月日时) into keys.
func parsePillars(s string) ([]bazi.PillarKey, error) {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil, fmt.Errorf("empty pillar list")
	}
	out := make([]bazi.PillarKey, 0, len(runes))
	for _, r := range runes {
		k, ok := bazi.PillarFromWord[string(r)]
		if !ok {
			return nil, fmt.Errorf("unknown pillar %q", string(r))
		}
		out = append(out, k)
	}
	return out, nil
}

// parsePillar resolves a single pillar word.
func parsePillar(s string) (bazi.PillarKey, error) {
	k, ok := bazi.PillarFromWord[s]
	if !ok {
		return "", fmt.Errorf("unknown pillar %q", s)
	}
	return k, nil
}

// parseStages validates a life-stage list (长生, 帝旺, ...).
func parseStages(s string) (names []string, alternatives bool, err error) {
	tokens, alt := valueList(s)
	if len(tokens) == 0 {
		return nil, false, fmt.Errorf("empty stage list")
	}
	for _, tok := range tokens {
		if !bazi.IsStage(tok) {
			return nil, false, fmt.Errorf("unknown stage %q", tok)
		}
	}
	return tokens, alt, nil
}
