package condition

import (
	"errors"
	"testing"

	"bazi-backend/internal/bazi"
)

// evalChart builds 癸卯 辛酉 甲子 乙丑, a strong male chart with 华盖 on
// the month pillar. Day master 甲; month main star 正官.
func evalChart(t *testing.T) *bazi.Chart {
	t.Helper()
	c := &bazi.Chart{
		Year:              bazi.Pillar{Stem: "癸", Branch: "卯"},
		Month:             bazi.Pillar{Stem: "辛", Branch: "酉", Deities: []string{"华盖"}},
		Day:               bazi.Pillar{Stem: "甲", Branch: "子"},
		Hour:              bazi.Pillar{Stem: "乙", Branch: "丑"},
		Gender:            bazi.GenderMale,
		Strength:          "身强",
		FavorableElements: []string{"水"},
		FavorableGods:     []string{"正印"},
		UnfavorableGods:   []string{"七杀"},
	}
	if err := c.Complete(); err != nil {
		t.Fatalf("complete chart: %v", err)
	}
	return c
}

func TestEvaluateLeaves(t *testing.T) {
	c := evalChart(t)

	cases := []struct {
		name string
		node Node
		want bool
	}{
		{"day pillar in list", PillarEquals{Pillar: bazi.PillarDay, Values: []string{"庚午", "甲子"}}, true},
		{"day pillar not in list", PillarEquals{Pillar: bazi.PillarDay, Values: []string{"庚午"}}, false},
		{"hour branch in set", PillarIn{Pillar: bazi.PillarHour, Part: PartBranch, Values: []string{"丑", "未"}}, true},
		{"year stem in set", PillarIn{Pillar: bazi.PillarYear, Part: PartStem, Values: []string{"壬", "癸"}}, true},
		{"month main star", MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "正官"}, true},
		{"month main star miss", MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "七杀"}, false},
		{"sub stars counted", TenGodsSub{Names: []string{"正印"}, Bounds: Exactly(2)}, true},
		{"sub stars one pillar", TenGodsSub{Names: []string{"正官"}, Pillars: []bazi.PillarKey{bazi.PillarMonth}}, true},
		{"total with min", TenGodsTotal{Names: []string{"正官"}, Bounds: AtLeast(3)}, true},
		{"total over max", TenGodsTotal{Names: []string{"正官"}, Bounds: AtLeast(4)}, false},
		{"absence as eq zero", TenGodsTotal{Names: []string{"食神"}, Bounds: Exactly(0)}, true},
		{"branches counted", BranchesCount{Names: []string{"子", "午", "卯", "酉"}, Bounds: Exactly(3)}, true},
		{"element missing", ElementTotal{Names: []string{"火"}, Bounds: Exactly(0)}, true},
		{"element plenty", ElementTotal{Names: []string{"木"}, Bounds: AtLeast(3)}, true},
		{"deity on pillar", DeitiesInPillar{Pillar: bazi.PillarMonth, Name: "华盖"}, true},
		{"deity wrong pillar", DeitiesInPillar{Pillar: bazi.PillarDay, Name: "华盖"}, false},
		{"deity anywhere", DeitiesInAny{Name: "华盖"}, true},
		{"deity absent", DeitiesInAny{Name: "桃花"}, false},
		{"branch conflict", PillarRelation{PillarA: bazi.PillarYear, PillarB: bazi.PillarMonth, Relation: bazi.RelationChong}, true},
		{"branch harmony", PillarRelation{PillarA: bazi.PillarDay, PillarB: bazi.PillarHour, Relation: bazi.RelationHe}, true},
		{"no stem combine", PillarRelation{PillarA: bazi.PillarYear, PillarB: bazi.PillarDay, Relation: bazi.RelationHe, Part: PartStem}, false},
		{"strength label", Wangshuai{States: []string{"身弱", "身强"}}, true},
		{"strength miss", Wangshuai{States: []string{"中和"}}, false},
		{"favorable element", Xishen{Name: "水"}, true},
		{"favorable god", Xishen{Name: "正印"}, true},
		{"not favorable", Xishen{Name: "火"}, false},
		{"unfavorable god", Jishen{Name: "七杀"}, true},
		{"day nayin", NayinEquals{Pillar: bazi.PillarDay, Nayin: "海中金"}, true},
		{"stem run present", StemsSequence{Names: []string{"甲", "乙"}}, true},
		{"stem run reversed", StemsSequence{Names: []string{"乙", "甲"}}, false},
		{"stem run empty", StemsSequence{}, false},
		{"day fortune stage", StarStage{Pillar: bazi.PillarDay, Part: PartFortune, Stages: []string{"沐浴"}}, true},
		{"day sitting stage", StarStage{Pillar: bazi.PillarDay, Part: PartSitting, Stages: []string{"沐浴"}}, true},
		{"gender match", Gender{Value: bazi.GenderMale}, true},
		{"gender miss", Gender{Value: bazi.GenderFemale}, false},
	}

	for _, tc := range cases {
		got, err := Evaluate(tc.node, c)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEvaluateCombinators(t *testing.T) {
	c := evalChart(t)

	and := All{Children: []Node{
		Gender{Value: bazi.GenderMale},
		MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "正官"},
	}}
	if got, err := Evaluate(and, c); err != nil || !got {
		t.Fatalf("all = %v, %v", got, err)
	}

	or := Any{Children: []Node{
		MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "七杀"},
		MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "正官"},
	}}
	if got, err := Evaluate(or, c); err != nil || !got {
		t.Fatalf("any = %v, %v", got, err)
	}

	neg := Not{Child: DeitiesInAny{Name: "桃花"}}
	if got, err := Evaluate(neg, c); err != nil || !got {
		t.Fatalf("not = %v, %v", got, err)
	}
}

// bogus is a node kind no table knows about.
type bogus struct{}

func (bogus) Kind() Kind { return Kind("bogus") }

func TestEvaluateUnknownKindIsFatal(t *testing.T) {
	c := evalChart(t)
	_, err := Evaluate(bogus{}, c)
	if !errors.Is(err, ErrNoPredicate) {
		t.Fatalf("want ErrNoPredicate, got %v", err)
	}
}

func TestEvaluateShortCircuits(t *testing.T) {
	c := evalChart(t)

	// The false child stops All before the poison node is reached.
	and := All{Children: []Node{Gender{Value: bazi.GenderFemale}, bogus{}}}
	if got, err := Evaluate(and, c); err != nil || got {
		t.Fatalf("all short-circuit: got %v, %v", got, err)
	}

	// The true child stops Any before the poison node is reached.
	or := Any{Children: []Node{Gender{Value: bazi.GenderMale}, bogus{}}}
	if got, err := Evaluate(or, c); err != nil || !got {
		t.Fatalf("any short-circuit: got %v, %v", got, err)
	}

	// Reordered, the poison node is reached and the error propagates.
	and.Children = []Node{bogus{}, Gender{Value: bazi.GenderFemale}}
	if _, err := Evaluate(and, c); !errors.Is(err, ErrNoPredicate) {
		t.Fatalf("want ErrNoPredicate through all, got %v", err)
	}
}

func TestEvaluateMalformedTree(t *testing.T) {
	c := evalChart(t)

	if _, err := Evaluate(nil, c); err == nil {
		t.Fatal("nil node must error")
	}
	if _, err := Evaluate(PillarEquals{Pillar: "elbow"}, c); err == nil {
		t.Fatal("unknown pillar must error")
	}
	if _, err := Evaluate(PillarIn{Pillar: bazi.PillarDay, Part: "claw"}, c); err == nil {
		t.Fatal("unknown part must error")
	}
	if _, err := Evaluate(StarStage{Pillar: bazi.PillarDay, Part: "claw"}, c); err == nil {
		t.Fatal("unknown stage part must error")
	}
}

func TestBoundsMatch(t *testing.T) {
	cases := []struct {
		name   string
		bounds Bounds
		count  int
		want   bool
	}{
		{"zero means presence", Bounds{}, 1, true},
		{"zero rejects zero", Bounds{}, 0, false},
		{"eq hit", Exactly(2), 2, true},
		{"eq below", Exactly(2), 1, false},
		{"eq above", Exactly(2), 3, false},
		{"eq zero", Exactly(0), 0, true},
		{"min at edge", AtLeast(2), 2, true},
		{"min below", AtLeast(2), 1, false},
		{"max at edge", AtMost(2), 2, true},
		{"max above", AtMost(2), 3, false},
		{"max zero count", AtMost(2), 0, true},
		{"range low edge", Between(2, 3), 2, true},
		{"range high edge", Between(2, 3), 3, true},
		{"range below", Between(2, 3), 1, false},
		{"range above", Between(2, 3), 4, false},
	}
	for _, tc := range cases {
		if got := tc.bounds.Match(tc.count); got != tc.want {
			t.Errorf("%s: Match(%d) = %v, want %v", tc.name, tc.count, got, tc.want)
		}
	}
	if !AtLeast(1).Match(5) || Exactly(1).IsZero() || !(Bounds{}).IsZero() {
		t.Fatal("helper constructors wrong")
	}
}
