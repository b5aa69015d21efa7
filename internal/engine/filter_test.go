package engine

import (
	"errors"
	"testing"

	"bazi-backend/internal/rules"
)

func filterFixture() []rules.Record {
	return []rules.Record{
		{ID: 1, Code: "FORMULA_SHISHEN_1", Name: "伤官见官", Category: "shishen", Priority: 100, Enabled: true},
		{ID: 2, Code: "FORMULA_SHISHEN_2", Name: "食神制杀", Category: "shishen", Priority: 50, Enabled: false},
		{ID: 3, Code: "FORMULA_DIZHI_3", Name: "卯酉相冲", Category: "dizhi", Priority: 100, Enabled: true},
	}
}

func TestFilterRules(t *testing.T) {
	cases := []struct {
		name string
		expr string
		want []string
	}{
		{"by category", `category == "shishen"`, []string{"FORMULA_SHISHEN_1", "FORMULA_SHISHEN_2"}},
		{"by enabled", `enabled`, []string{"FORMULA_SHISHEN_1", "FORMULA_DIZHI_3"}},
		{"by priority", `priority >= 100 && enabled`, []string{"FORMULA_SHISHEN_1", "FORMULA_DIZHI_3"}},
		{"by name", `name contains "伤官"`, []string{"FORMULA_SHISHEN_1"}},
		{"by id", `id > 2`, []string{"FORMULA_DIZHI_3"}},
		{"none", `priority > 1000`, nil},
	}

	for _, tc := range cases {
		got, err := FilterRules(tc.expr, filterFixture())
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %d records, want %d", tc.name, len(got), len(tc.want))
		}
		for i, w := range tc.want {
			if got[i].Code != w {
				t.Errorf("%s: [%d] = %s, want %s", tc.name, i, got[i].Code, w)
			}
		}
	}
}

func TestFilterRulesBadExpression(t *testing.T) {
	for _, expr := range []string{`category ==`, `(priority`, `&& enabled`} {
		_, err := FilterRules(expr, filterFixture())
		if err == nil {
			t.Fatalf("%q: expected error", expr)
		}
		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.Code != "INVALID_PAYLOAD" {
			t.Fatalf("%q: expected INVALID_PAYLOAD, got %v", expr, err)
		}
	}
}
