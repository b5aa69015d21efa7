package condition

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"bazi-backend/internal/bazi"
)

func TestCodecRoundTrip(t *testing.T) {
	tree := All{Children: []Node{
		Gender{Value: bazi.GenderFemale},
		Any{Children: []Node{
			MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "正官"},
			MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "七杀"},
		}},
		Not{Child: DeitiesInAny{Name: "桃花"}},
		TenGodsTotal{Names: []string{"正印", "偏印"}, Bounds: Between(1, 3)},
		BranchesCount{Names: []string{"子", "午", "卯", "酉"}, Bounds: AtLeast(3)},
		PillarRelation{PillarA: bazi.PillarYear, PillarB: bazi.PillarMonth, Relation: bazi.RelationChong},
		StarStage{Pillar: bazi.PillarDay, Part: PartSitting, Stages: []string{"帝旺"}},
	}}

	data, err := Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, tree) {
		t.Fatalf("round trip changed the tree:\n got %#v\nwant %#v", back, tree)
	}
}

func TestCodecKindTagOnEveryNode(t *testing.T) {
	data, err := Marshal(Any{Children: []Node{
		ElementTotal{Names: []string{"火"}, Bounds: Exactly(0)},
		Xishen{Name: "水"},
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var env struct {
		Kind     string `json:"kind"`
		Children []struct {
			Kind string `json:"kind"`
		} `json:"children"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if env.Kind != "any" {
		t.Fatalf("root kind = %q", env.Kind)
	}
	if len(env.Children) != 2 || env.Children[0].Kind != "element_total" || env.Children[1].Kind != "xishen" {
		t.Fatalf("child kinds wrong: %+v", env.Children)
	}
}

func TestCodecBoundsFlattened(t *testing.T) {
	data, err := Marshal(TenGodsSub{Names: []string{"偏印"}, Bounds: Exactly(1)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"eq":1`) || strings.Contains(s, `"bounds"`) {
		t.Fatalf("bounds not flattened: %s", s)
	}
	if strings.Contains(s, `"min"`) || strings.Contains(s, `"max"`) {
		t.Fatalf("unset limits should be omitted: %s", s)
	}
}

func TestCodecRejectsUnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte(`{"kind":"palmistry","values":["甲子"]}`))
	if err == nil || !strings.Contains(err.Error(), "palmistry") {
		t.Fatalf("want unknown-kind error, got %v", err)
	}
}

func TestCodecRejectsMissingKind(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"values":["甲子"]}`)); err == nil {
		t.Fatal("want error for node without kind")
	}
}

func TestCodecRejectsEmptyCombinator(t *testing.T) {
	for _, raw := range []string{`{"kind":"all","children":[]}`, `{"kind":"any"}`, `{"kind":"not"}`} {
		if _, err := Unmarshal([]byte(raw)); err == nil {
			t.Fatalf("want error for %s", raw)
		}
	}
}

func TestCodecRejectsUnknownNestedKind(t *testing.T) {
	raw := `{"kind":"all","children":[{"kind":"gender","value":"male"},{"kind":"tea_leaves"}]}`
	if _, err := Unmarshal([]byte(raw)); err == nil {
		t.Fatal("nested unknown kind must fail the whole decode")
	}
}

// Every leaf the codec accepts must have a predicate, and every
// predicate must be reachable from the codec. Drift between the two
// tables is exactly the failure ErrNoPredicate exists to catch.
func TestCodecAndEvaluatorTablesAgree(t *testing.T) {
	combinators := map[Kind]bool{KindAll: true, KindAny: true, KindNot: true}
	for k := range decoders {
		if combinators[k] {
			continue
		}
		if _, ok := predicates[k]; !ok {
			t.Errorf("kind %q decodable but not evaluable", k)
		}
	}
	for k := range predicates {
		if _, ok := decoders[k]; !ok {
			t.Errorf("kind %q evaluable but not decodable", k)
		}
	}
}
