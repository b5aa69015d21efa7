package importer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"

	"bazi-backend/internal/compiler"
)

// ReadRows loads rule rows from a workbook or a yaml file, dispatching
// on the extension.
func ReadRows(path string) ([]compiler.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(path)
	case ".yaml", ".yml":
		return ReadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported rule file %q (want .xlsx or .yaml)", path)
	}
}

// ReadWorkbook reads every category sheet of an xlsx workbook. Sheet
// names map to category tags; sheets that are no category (cover pages,
// notes) are skipped with a warning. Column order per sheet: id,
// field1, field2, quantity, gender, result. The header row is skipped.
func ReadWorkbook(path string) ([]compiler.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var rows []compiler.Row
	for _, sheet := range f.GetSheetList() {
		if _, known := compiler.ResolveCategory(sheet); !known {
			slog.Warn("skipping non-category sheet", "sheet", sheet)
			continue
		}
		sr, err := sheetRows(f, sheet)
		if err != nil {
			return nil, err
		}
		rows = append(rows, sr...)
	}
	return rows, nil
}

func sheetRows(f *excelize.File, sheet string) ([]compiler.Row, error) {
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	rows := make([]compiler.Row, 0, len(cells))
	for i, rc := range cells {
		if i == 0 {
			continue
		}
		get := func(col int) string {
			if col < len(rc) {
				return strings.TrimSpace(rc[col])
			}
			return ""
		}
		if get(0) == "" && get(1) == "" && get(2) == "" {
			continue
		}
		id, err := strconv.ParseInt(get(0), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %d: rule id %q is not a number", sheet, i+1, get(0))
		}
		rows = append(rows, compiler.Row{
			ID:       id,
			Category: sheet,
			Field1:   get(1),
			Field2:   get(2),
			Quantity: get(3),
			Gender:   get(4),
			Content:  get(5),
		})
	}
	return rows, nil
}

// ReadYAML reads a yaml list of row objects keyed like the Row JSON
// form (id, category, field1, field2, quantity, gender, result_text).
func ReadYAML(path string) ([]compiler.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var rows []compiler.Row
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}
