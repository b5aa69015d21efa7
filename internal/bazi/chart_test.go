package bazi

import "testing"

// testChart builds 癸卯 辛酉 甲子 乙丑 (day master 甲, 正官 month main
// star) and completes the derivable fields.
func testChart(t *testing.T) *Chart {
	t.Helper()
	c := &Chart{
		Year:   Pillar{Stem: "癸", Branch: "卯"},
		Month:  Pillar{Stem: "辛", Branch: "酉"},
		Day:    Pillar{Stem: "甲", Branch: "子"},
		Hour:   Pillar{Stem: "乙", Branch: "丑"},
		Gender: GenderMale,
	}
	if err := c.Complete(); err != nil {
		t.Fatalf("complete chart: %v", err)
	}
	return c
}

func TestChartComplete(t *testing.T) {
	c := testChart(t)

	if c.DayMaster() != "甲" {
		t.Fatalf("day master = %s", c.DayMaster())
	}
	if c.Month.MainStar != "正官" {
		t.Fatalf("month main star = %s, want 正官", c.Month.MainStar)
	}
	if c.Day.MainStar != DayMasterStar {
		t.Fatalf("day main star = %s, want %s", c.Day.MainStar, DayMasterStar)
	}
	if len(c.Month.SubStars) != 1 || c.Month.SubStars[0] != "正官" {
		t.Fatalf("month sub stars = %v", c.Month.SubStars)
	}
	if c.Day.NaYin != "海中金" {
		t.Fatalf("day nayin = %s", c.Day.NaYin)
	}
	if c.Day.StarFortune != "沐浴" { // 甲 over 子
		t.Fatalf("day star fortune = %s", c.Day.StarFortune)
	}

	// 癸辛甲乙 / 卯酉子丑 → 水2 金2 木3 土1 火0
	counts := map[string]int{"水": 2, "金": 2, "木": 3, "土": 1, "火": 0}
	for el, want := range counts {
		if got := c.ElementCount(el); got != want {
			t.Fatalf("element %s count = %d, want %d", el, got, want)
		}
	}
}

func TestChartCompleteKeepsSuppliedValues(t *testing.T) {
	c := testChart(t)
	c.Month.MainStar = "七杀" // pretend the producer disagrees
	c2 := *c
	if err := c2.Complete(); err != nil {
		t.Fatalf("recomplete: %v", err)
	}
	if c2.Month.MainStar != "七杀" {
		t.Fatal("Complete overwrote a supplied value")
	}
}

func TestChartCompleteRejectsInvalid(t *testing.T) {
	c := &Chart{
		Year:  Pillar{Stem: "甲", Branch: "子"},
		Month: Pillar{Stem: "子", Branch: "子"}, // branch in stem position
		Day:   Pillar{Stem: "甲", Branch: "子"},
		Hour:  Pillar{Stem: "甲", Branch: "子"},
	}
	if err := c.Complete(); err == nil {
		t.Fatal("expected error for invalid stem")
	}
}

func TestChartCounters(t *testing.T) {
	c := testChart(t)

	// Main stars: 正印(year) 正官(month) 日主(day) 劫财(hour).
	// Sub stars: 卯→劫财, 酉→正官, 子→正印, 丑→正财 正印 正官.
	if got := c.CountTenGodsTotal([]string{"正官"}); got != 3 {
		t.Fatalf("total 正官 = %d, want 3", got)
	}
	if got := c.CountTenGodsSub([]string{"正官"}, []PillarKey{PillarMonth}); got != 1 {
		t.Fatalf("month sub 正官 = %d, want 1", got)
	}
	if got := c.CountTenGodsSub([]string{"正印"}, nil); got != 2 {
		t.Fatalf("sub 正印 anywhere = %d, want 2", got)
	}
	if got := c.CountBranches([]string{"子", "午", "卯", "酉"}); got != 3 {
		t.Fatalf("branches in 子午卯酉 = %d, want 3", got)
	}
}

func TestChartDeitiesAndFavors(t *testing.T) {
	c := testChart(t)
	c.Month.Deities = []string{"华盖"}
	if !c.HasDeityAny("华盖") {
		t.Fatal("华盖 should be found")
	}
	if c.HasDeityAny("桃花") {
		t.Fatal("桃花 should be absent")
	}
	if !c.Month.HasDeity("华盖") || c.Day.HasDeity("华盖") {
		t.Fatal("per-pillar deity lookup wrong")
	}

	c.FavorableElements = []string{"水"}
	c.UnfavorableGods = []string{"七杀"}
	if !c.Favors("水") || c.Favors("火") {
		t.Fatal("favorable lookup wrong")
	}
	if !c.Dislikes("七杀") || c.Dislikes("水") {
		t.Fatal("unfavorable lookup wrong")
	}
}

func TestPillarKeyHelpers(t *testing.T) {
	if !PillarKey("day").Valid() || PillarKey("elbow").Valid() {
		t.Fatal("pillar key validity wrong")
	}
	if PillarFromWord["月"] != PillarMonth {
		t.Fatal("word mapping wrong")
	}
	c := testChart(t)
	if c.Pillar(PillarHour).GanZhi() != "乙丑" {
		t.Fatalf("hour ganzhi = %s", c.Pillar(PillarHour).GanZhi())
	}
	if c.Pillar("nope") != nil {
		t.Fatal("invalid key should return nil")
	}
}
