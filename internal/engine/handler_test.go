package engine

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/condition"
	"bazi-backend/internal/rules"
)

func testApp(reg *rules.Registry) *fiber.App {
	app := fiber.New()
	RegisterMatchRoutes(app, NewHandler(reg))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, _ := http.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("parse response %s: %v", raw, err)
	}
}

func TestMatchChartsEndpoint(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Load([]rules.Record{
		formulaRule(1, "shishen", 100, condition.MainStarInPillar{Pillar: bazi.PillarMonth, Eq: "正官"}),
		formulaRule(2, "shishen", 50, condition.Gender{Value: bazi.GenderFemale}),
	}, 9)
	app := testApp(reg)

	resp := postJSON(t, app, "/api/charts/match", fiber.Map{
		"chart": matchChart(t),
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		RuleVersion int64              `json:"rule_version"`
		Total       int                `json:"total"`
		Matches     map[string][]Match `json:"matches"`
	}
	decodeBody(t, resp, &body)

	if body.RuleVersion != 9 {
		t.Errorf("rule_version = %d, want 9", body.RuleVersion)
	}
	if body.Total != 1 {
		t.Fatalf("total = %d, want 1", body.Total)
	}
	got := body.Matches["shishen"]
	if len(got) != 1 || got[0].Code != "FORMULA_SHISHEN_1" {
		t.Fatalf("matches = %+v", body.Matches)
	}
	if got[0].Content != "content" || got[0].Priority != 100 {
		t.Errorf("match fields not carried: %+v", got[0])
	}
}

func TestMatchChartsCategoryFilter(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Load([]rules.Record{
		formulaRule(1, "shishen", 100, condition.Gender{Value: bazi.GenderMale}),
		formulaRule(1, "dizhi", 100, condition.Gender{Value: bazi.GenderMale}),
	}, 1)
	app := testApp(reg)

	resp := postJSON(t, app, "/api/charts/match", fiber.Map{
		"chart":      matchChart(t),
		"categories": []string{"dizhi"},
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Total   int                `json:"total"`
		Matches map[string][]Match `json:"matches"`
	}
	decodeBody(t, resp, &body)
	if body.Total != 1 {
		t.Fatalf("total = %d, want 1", body.Total)
	}
	if _, ok := body.Matches["shishen"]; ok {
		t.Fatalf("shishen not requested but present: %+v", body.Matches)
	}
}

func TestMatchChartsRejectsBadPayload(t *testing.T) {
	app := testApp(rules.NewRegistry())

	req, _ := http.NewRequest("POST", "/api/charts/match", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.Error.Code != "INVALID_PAYLOAD" {
		t.Fatalf("expected INVALID_PAYLOAD, got %s", errResp.Error.Code)
	}
}

func TestMatchChartsRejectsBadChart(t *testing.T) {
	app := testApp(rules.NewRegistry())

	resp := postJSON(t, app, "/api/charts/match", fiber.Map{
		"chart": fiber.Map{
			"year":  fiber.Map{"stem": "甲", "branch": "子"},
			"month": fiber.Map{"stem": "??", "branch": "子"},
			"day":   fiber.Map{"stem": "甲", "branch": "子"},
			"hour":  fiber.Map{"stem": "甲", "branch": "子"},
		},
	})
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var errResp ErrorResponse
	decodeBody(t, resp, &errResp)
	if errResp.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", errResp.Error.Code)
	}
	if len(errResp.Error.Details) == 0 || errResp.Error.Details[0].Field != "chart" {
		t.Fatalf("expected chart detail, got %+v", errResp.Error.Details)
	}
}

func TestPreviewRuleEndpoint(t *testing.T) {
	app := testApp(rules.NewRegistry())

	resp := postJSON(t, app, "/api/rules/preview", fiber.Map{
		"id":       1,
		"category": "shishen",
		"field1":   "伤官",
		"quantity": "3个以上",
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		OK         bool            `json:"ok"`
		Reason     string          `json:"reason"`
		Conditions json.RawMessage `json:"conditions"`
	}
	decodeBody(t, resp, &body)
	if !body.OK || len(body.Conditions) == 0 {
		t.Fatalf("preview failed: %+v reason=%s", body, body.Reason)
	}
	node, err := condition.Unmarshal(body.Conditions)
	if err != nil {
		t.Fatalf("conditions not decodable: %v", err)
	}
	if node == nil {
		t.Fatal("nil tree")
	}
}

func TestPreviewRuleCompileFailureIsPayload(t *testing.T) {
	app := testApp(rules.NewRegistry())

	resp := postJSON(t, app, "/api/rules/preview", fiber.Map{
		"id":       1,
		"category": "noodles",
		"field1":   "伤官",
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	}
	decodeBody(t, resp, &body)
	if body.OK || body.Reason == "" {
		t.Fatalf("expected ok=false with reason, got %+v", body)
	}
}
