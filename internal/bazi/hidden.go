package bazi

// hiddenStems lists the stems hidden in each branch (藏干), principal
// stem first. The order is part of the chart contract: sub stars are
// reported in this order.
var hiddenStems = map[string][]string{
	"子": {"癸"},
	"丑": {"己", "癸", "辛"},
	"寅": {"甲", "丙", "戊"},
	"卯": {"乙"},
	"辰": {"戊", "乙", "癸"},
	"巳": {"丙", "庚", "戊"},
	"午": {"丁", "己"},
	"未": {"己", "丁", "乙"},
	"申": {"庚", "壬", "戊"},
	"酉": {"辛"},
	"戌": {"戊", "辛", "丁"},
	"亥": {"壬", "甲"},
}

// HiddenStems returns the stems hidden in branch, principal first.
// The result is a copy; callers may not mutate the table.
func HiddenStems(branch string) []string {
	hs, ok := hiddenStems[branch]
	if !ok {
		return nil
	}
	return append([]string(nil), hs...)
}
