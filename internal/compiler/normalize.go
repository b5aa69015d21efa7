// Package compiler turns tabular rule rows into condition trees. Each
// category owns an ordered matcher table; the first recognizer whose
// pattern matches a clause builds its node. Unrecognized text is a
// per-row failure, never a guessed tree.
package compiler

import "strings"

// quoteStripper removes every quotation-mark variant that appears in
// the source sheets.
var quoteStripper = strings.NewReplacer(
	"“", "", "”", "", "‘", "", "’", "",
	`"`, "", "'", "", "`", "",
	"「", "", "」", "", "『", "", "』", "",
)

// typoFixes corrects the variant characters and misspellings seen in
// the sheets. No entry's output contains another entry's input, so the
// table is order-independent and a second pass changes nothing.
var typoFixes = strings.NewReplacer(
	"傷官", "伤官",
	"正財", "正财",
	"偏財", "偏财",
	"劫財", "劫财",
	"劫才", "劫财",
	"七煞", "七杀",
	"梟神", "枭神",
	"華蓋", "华盖",
	"驛馬", "驿马",
	"貴人", "贵人",
	"紅鸞", "红鸾",
	"將星", "将星",
	"祿神", "禄神",
	// 已 typed for 巳 inside a sexagenary pair.
	"乙已", "乙巳",
	"丁已", "丁巳",
	"己已", "己巳",
	"辛已", "辛巳",
	"癸已", "癸巳",
)

// Normalize strips quotation marks, fixes known typos and trims
// whitespace. Pure and idempotent; accepts any string including "".
func Normalize(s string) string {
	return strings.TrimSpace(typoFixes.Replace(quoteStripper.Replace(s)))
}
