package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bazi-backend/internal/importer"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeRowsYAML(t *testing.T) string {
	t.Helper()
	doc := `- id: 1
  category: 十神
  field1: 伤官
  quantity: 3个以上
  result_text: 聪明伶俐
- id: 2
  category: 十神
  field1: 未知文本
  result_text: 某断语
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompilePrintsTree(t *testing.T) {
	out, _, err := execute(t, "compile", "--category", "十神", "--field1", "伤官", "--quantity", "3个以上")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, want := range []string{`"kind": "ten_gods_total"`, `"伤官"`, `"min": 3`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %s:\n%s", want, out)
		}
	}
}

func TestCompileReportsReason(t *testing.T) {
	_, _, err := execute(t, "compile", "--category", "noodles", "--field1", "伤官")
	if err == nil || !strings.Contains(err.Error(), "unsupported category") {
		t.Fatalf("err = %v", err)
	}
}

func TestCompileRequiresCategory(t *testing.T) {
	_, _, err := execute(t, "compile", "--field1", "伤官")
	if err == nil || !strings.Contains(err.Error(), "category") {
		t.Fatalf("err = %v", err)
	}
}

func TestImportDryRunJSON(t *testing.T) {
	path := writeRowsYAML(t)

	out, _, err := execute(t, "import", "--file", path, "--json")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	var report importer.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("report is not json: %v\n%s", err, out)
	}
	if !report.DryRun || report.Total != 2 || report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.RuleVersion != 0 {
		t.Fatalf("dry run bumped the rule version to %d", report.RuleVersion)
	}
	if len(report.Failures) != 1 || report.Failures[0].ID != 2 {
		t.Fatalf("failures = %+v", report.Failures)
	}
}

func TestImportDryRunSummary(t *testing.T) {
	path := writeRowsYAML(t)

	out, _, err := execute(t, "import", "--file", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, want := range []string{"dry run", "rows: 2", "row 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	_, _, err := execute(t, "import", "--file", "rules.txt")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("err = %v", err)
	}
}

func TestUnknownLogLevelFailsEarly(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "compile", "--category", "shishen", "--field1", "伤官")
	if err == nil || !strings.Contains(err.Error(), "log") {
		t.Fatalf("err = %v", err)
	}
}

func TestEnvVarBindsFlags(t *testing.T) {
	t.Setenv("RULECTL_LOG_LEVEL", "loud")
	_, _, err := execute(t, "compile", "--category", "十神", "--field1", "伤官")
	if err == nil || !strings.Contains(err.Error(), "log") {
		t.Fatalf("err = %v", err)
	}
}

func TestCommandLineOverridesEnv(t *testing.T) {
	t.Setenv("RULECTL_LOG_LEVEL", "loud")
	_, _, err := execute(t, "--log-level", "debug", "compile", "--category", "十神", "--field1", "伤官")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
}

func TestFlagToEnvName(t *testing.T) {
	if got := flagToEnvName("log-level"); got != "RULECTL_LOG_LEVEL" {
		t.Fatalf("flagToEnvName = %q", got)
	}
}
