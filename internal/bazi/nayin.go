package bazi

// nayinList holds the thirty sound-element names (纳音) in cycle order;
// each covers two consecutive sexagenary pairs.
var nayinList = []string{
	"海中金", "炉中火", "大林木", "路旁土", "剑锋金",
	"山头火", "涧下水", "城头土", "白蜡金", "杨柳木",
	"泉中水", "屋上土", "霹雳火", "松柏木", "长流水",
	"沙中金", "山下火", "平地木", "壁上土", "金箔金",
	"覆灯火", "天河水", "大驿土", "钗钏金", "桑柘木",
	"大溪水", "沙中土", "天上火", "石榴木", "大海水",
}

// nayinNames maps each sexagenary pair to its sound element.
var nayinNames = buildNayin(nayinList)

func buildNayin(names []string) map[string]string {
	m := make(map[string]string, 60)
	for i := 0; i < 60; i++ {
		gz := stemList[i%10] + branchList[i%12]
		m[gz] = names[i/2]
	}
	return m
}

// NaYin returns the sound element of a stem+branch pair, or "" for
// invalid pairs.
func NaYin(ganzhi string) string { return nayinNames[ganzhi] }

// NaYinNames returns the thirty sound-element names in cycle order.
func NaYinNames() []string { return append([]string(nil), nayinList...) }

// IsNaYin reports whether name is one of the thirty sound elements.
func IsNaYin(name string) bool {
	for _, v := range nayinList {
		if v == name {
			return true
		}
	}
	return false
}
