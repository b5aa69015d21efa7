package bazi

import "strings"

// deityCatalog lists the auspicious/inauspicious markers (神煞) the chart
// calculator emits. The compiler validates captured deity names against
// this catalog so that a template match never smuggles in an unknown name.
var deityCatalog = []string{
	"天乙贵人", "天德贵人", "月德贵人", "文昌贵人",
	"太极贵人", "金舆", "禄神", "羊刃", "华盖",
	"桃花", "驿马", "将星", "劫煞", "灾煞", "亡神",
	"孤辰", "寡宿", "红鸾", "天喜", "魁罡", "空亡",
	"血刃", "童子煞",
}

// deityAliases maps the short forms used in rule sheets to catalog names.
var deityAliases = map[string]string{
	"天乙": "天乙贵人",
	"天德": "天德贵人",
	"月德": "月德贵人",
	"文昌": "文昌贵人",
	"太极": "太极贵人",
	"咸池": "桃花",
	"禄":   "禄神",
}

var deitySet = func() map[string]bool {
	m := make(map[string]bool, len(deityCatalog))
	for _, d := range deityCatalog {
		m[d] = true
	}
	return m
}()

// CanonicalDeity resolves a deity name or alias to its catalog form.
func CanonicalDeity(name string) (string, bool) {
	if deitySet[name] {
		return name, true
	}
	if c, ok := deityAliases[name]; ok {
		return c, true
	}
	return "", false
}

// DeityPattern is the regexp alternation of every deity name and alias,
// longest first so that e.g. 天乙贵人 wins over 天乙.
var DeityPattern = func() string {
	names := make([]string, 0, len(deityCatalog)+len(deityAliases))
	names = append(names, deityCatalog...)
	for a := range deityAliases {
		names = append(names, a)
	}
	// Insertion order of map iteration is random; sort by length desc,
	// then lexicographically for determinism.
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			li, lj := len([]rune(names[i])), len([]rune(names[j]))
			if lj > li || (lj == li && names[j] < names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return strings.Join(names, "|")
}()
