package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"bazi-backend/internal/condition"
)

// numCls matches one number in any of the sheet's habits: ASCII digits,
// full-width digits, or simple Chinese numerals up to 99.
const numCls = `(?:[0-9０-９]+|[〇零一两二三四五六七八九]?十[一两二三四五六七八九]?|[〇零一两二三四五六七八九]+)`

var fullWidthDigits = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
)

var cnDigits = map[rune]int{
	'〇': 0, '零': 0, '一': 1, '两': 2, '二': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// parseNum turns one captured number into an int.
func parseNum(s string) (int, error) {
	s = fullWidthDigits.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	return parseChineseNum(s)
}

// parseChineseNum reads numerals of the forms 三, 十, 十三, 三十 and
// 三十一.
func parseChineseNum(s string) (int, error) {
	runes := []rune(s)
	tens, units, seenShi := 0, 0, false
	for _, r := range runes {
		if r == '十' {
			if seenShi {
				return 0, fmt.Errorf("malformed number %q", s)
			}
			seenShi = true
			if units == 0 {
				units = 1
			}
			tens, units = units, 0
			continue
		}
		d, ok := cnDigits[r]
		if !ok {
			return 0, fmt.Errorf("malformed number %q", s)
		}
		if units != 0 {
			return 0, fmt.Errorf("malformed number %q", s)
		}
		units = d
	}
	return tens*10 + units, nil
}

// Quantity qualifier grammar. Anchored; tried in order.
var (
	reQtyRange    = regexp.MustCompile(`^(` + numCls + `)[个位]?\s*[-~～—至]\s*(` + numCls + `)[个位]?$`)
	reQtyMoreThan = regexp.MustCompile(`^(?:多于|超过|大于)(` + numCls + `)[个位]?$`)
	reQtyLessThan = regexp.MustCompile(`^(?:少于|不足|小于)(` + numCls + `)[个位]?$`)
	reQtyAtLeast  = regexp.MustCompile(`^(?:至少(` + numCls + `)[个位]?|(` + numCls + `)[个位]?(?:或?以上|起))$`)
	reQtyAtMost   = regexp.MustCompile(`^(?:最多(` + numCls + `)[个位]?|不超过(` + numCls + `)[个位]?|(` + numCls + `)[个位]?或?以下)$`)
	reQtyExact    = regexp.MustCompile(`^(` + numCls + `)[个位]?$`)
)

// noLimitWords are quantity cells that mean "no constraint".
var noLimitWords = map[string]bool{"": true, "不限": true, "任意": true, "无": true, "/": true, "-": true}

// ParseQuantity turns a quantity qualifier into bounds. The zero
// Bounds comes back for cells that state no constraint; malformed
// cells are an error so the row fails instead of silently dropping
// the qualifier.
func ParseQuantity(s string) (condition.Bounds, error) {
	s = Normalize(s)
	if noLimitWords[s] {
		return condition.Bounds{}, nil
	}

	if m := reQtyRange.FindStringSubmatch(s); m != nil {
		lo, err := parseNum(m[1])
		if err != nil {
			return condition.Bounds{}, qtyErr(s, err)
		}
		hi, err := parseNum(m[2])
		if err != nil {
			return condition.Bounds{}, qtyErr(s, err)
		}
		if lo > hi {
			return condition.Bounds{}, fmt.Errorf("quantity %q: range is inverted", s)
		}
		return condition.Between(lo, hi), nil
	}
	if m := reQtyMoreThan.FindStringSubmatch(s); m != nil {
		n, err := parseNum(m[1])
		if err != nil {
			return condition.Bounds{}, qtyErr(s, err)
		}
		return condition.AtLeast(n + 1), nil
	}
	if m := reQtyLessThan.FindStringSubmatch(s); m != nil {
		n, err := parseNum(m[1])
		if err != nil {
			return condition.Bounds{}, qtyErr(s, err)
		}
		if n == 0 {
			return condition.Bounds{}, fmt.Errorf("quantity %q: nothing is below zero", s)
		}
		return condition.AtMost(n - 1), nil
	}
	if m := reQtyAtLeast.FindStringSubmatch(s); m != nil {
		n, err := parseNum(firstGroup(m))
		if err != nil {
			return condition.Bounds{}, qtyErr(s, err)
		}
		return condition.AtLeast(n), nil
	}
	if m := reQtyAtMost.FindStringSubmatch(s); m != nil {
		n, err := parseNum(firstGroup(m))
		if err != nil {
			return condition.Bounds{}, qtyErr(s, err)
		}
		return condition.AtMost(n), nil
	}
	if m := reQtyExact.FindStringSubmatch(s); m != nil {
		n, err := parseNum(m[1])
		if err != nil {
			return condition.Bounds{}, qtyErr(s, err)
		}
		return condition.Exactly(n), nil
	}
	return condition.Bounds{}, fmt.Errorf("unrecognized quantity %q", s)
}

func qtyErr(s string, err error) error {
	return fmt.Errorf("quantity %q: %v", s, err)
}

// firstGroup returns the first non-empty capture of a match.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
