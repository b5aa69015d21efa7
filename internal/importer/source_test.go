package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "十神")
	for i, cell := range []string{"序号", "条件1", "条件2", "数量", "性别", "结果"} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue("十神", col+"1", cell); err != nil {
			t.Fatalf("set header: %v", err)
		}
	}
	f.SetCellValue("十神", "A2", 1)
	f.SetCellValue("十神", "B2", "伤官")
	f.SetCellValue("十神", "D2", "3个以上")
	f.SetCellValue("十神", "F2", "聪明")
	f.SetCellValue("十神", "A3", 2)
	f.SetCellValue("十神", "B3", "食神")
	f.SetCellValue("十神", "E3", "女")

	// Row 4 stays blank and must be skipped.
	f.SetCellValue("十神", "A5", 3)
	f.SetCellValue("十神", "B5", "七杀")

	if _, err := f.NewSheet("旺衰"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	f.SetCellValue("旺衰", "A1", "序号")
	f.SetCellValue("旺衰", "A2", 9)
	f.SetCellValue("旺衰", "B2", "身强")

	// A notes sheet that is no category.
	if _, err := f.NewSheet("说明"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	f.SetCellValue("说明", "A1", "这是说明")

	path := filepath.Join(t.TempDir(), "rules.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestReadWorkbook(t *testing.T) {
	rows, err := ReadWorkbook(writeWorkbook(t))
	if err != nil {
		t.Fatalf("read workbook: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4: %+v", len(rows), rows)
	}

	first := rows[0]
	if first.ID != 1 || first.Category != "十神" || first.Field1 != "伤官" {
		t.Errorf("row 0 = %+v", first)
	}
	if first.Quantity != "3个以上" || first.Content != "聪明" {
		t.Errorf("row 0 extras = %+v", first)
	}
	if rows[1].Gender != "女" {
		t.Errorf("row 1 gender = %q", rows[1].Gender)
	}
	if rows[2].ID != 3 || rows[2].Field1 != "七杀" {
		t.Errorf("blank row not skipped: %+v", rows[2])
	}
	last := rows[3]
	if last.Category != "旺衰" || last.ID != 9 || last.Field1 != "身强" {
		t.Errorf("row 3 = %+v", last)
	}
}

func TestReadWorkbookBadID(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", "十神")
	f.SetCellValue("十神", "A1", "序号")
	f.SetCellValue("十神", "A2", "七")
	f.SetCellValue("十神", "B2", "伤官")

	path := filepath.Join(t.TempDir(), "bad.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	if _, err := ReadWorkbook(path); err == nil {
		t.Fatal("expected an error for a non-numeric id")
	}
}

func TestReadYAML(t *testing.T) {
	src := `- id: 1
  category: 十神
  field1: 伤官
  quantity: 3个以上
  result_text: 聪明
- id: 2
  category: 旺衰
  field1: 身强
  gender: 男
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	rows, err := ReadRows(path)
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ID != 1 || rows[0].Field1 != "伤官" || rows[0].Quantity != "3个以上" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[0].Content != "聪明" {
		t.Errorf("row 0 content = %q", rows[0].Content)
	}
	if rows[1].Category != "旺衰" || rows[1].Gender != "男" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestReadRowsUnknownExtension(t *testing.T) {
	if _, err := ReadRows("rules.csv"); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}
