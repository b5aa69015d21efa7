package bazi

// The ten gods (十神), the classification of any stem relative to the
// day master.
const (
	BiJian    = "比肩"
	JieCai    = "劫财"
	ShiShen   = "食神"
	ShangGuan = "伤官"
	PianCai   = "偏财"
	ZhengCai  = "正财"
	QiSha     = "七杀"
	ZhengGuan = "正官"
	PianYin   = "偏印"
	ZhengYin  = "正印"
)

var tenGodList = []string{
	BiJian, JieCai, ShiShen, ShangGuan, PianCai,
	ZhengCai, QiSha, ZhengGuan, PianYin, ZhengYin,
}

var tenGodSet = func() map[string]bool {
	m := make(map[string]bool, len(tenGodList))
	for _, g := range tenGodList {
		m[g] = true
	}
	return m
}()

// TenGodAliases maps the alternate names seen in rule sheets to the
// canonical ten-god names.
var TenGodAliases = map[string]string{
	"偏官": QiSha,
	"枭神": PianYin,
	"枭印": PianYin,
	"败财": JieCai,
}

// TenGodList returns the ten canonical names in classification order.
func TenGodList() []string { return append([]string(nil), tenGodList...) }

// IsTenGod reports whether name is a canonical ten-god name.
func IsTenGod(name string) bool { return tenGodSet[name] }

// CanonicalTenGod resolves aliases to the canonical name, returning
// ok=false for names that are not ten gods at all.
func CanonicalTenGod(name string) (string, bool) {
	if tenGodSet[name] {
		return name, true
	}
	if c, ok := TenGodAliases[name]; ok {
		return c, true
	}
	return "", false
}

// TenGod classifies stem relative to the day master dayStem.
// Returns "" when either argument is not a stem.
func TenGod(dayStem, stem string) string {
	de, se := stemElement[dayStem], stemElement[stem]
	if de == "" || se == "" {
		return ""
	}
	same := StemYang(dayStem) == StemYang(stem)
	switch {
	case de == se:
		if same {
			return BiJian
		}
		return JieCai
	case ElementGenerates(de, se):
		if same {
			return ShiShen
		}
		return ShangGuan
	case ElementControls(de, se):
		if same {
			return PianCai
		}
		return ZhengCai
	case ElementControls(se, de):
		if same {
			return QiSha
		}
		return ZhengGuan
	default: // se generates de
		if same {
			return PianYin
		}
		return ZhengYin
	}
}
