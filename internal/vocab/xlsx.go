package vocab

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

var header = []string{"english", "meaning", "usage"}

// XLSXSource reads vocabulary from an Excel workbook. Rows are laid out as
// [english, meaning, usage] under a single header row.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource creates a workbook source. An empty sheet selects the first sheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

func (s *XLSXSource) Name() string {
	return s.path
}

func (s *XLSXSource) Load(_ context.Context) ([]Record, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := s.sheetName(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseRows(rows), nil
}

// Append writes r as a new row unless the term is already present. A missing
// workbook is created with a header row, and an empty sheet gets one first.
func (s *XLSXSource) Append(_ context.Context, r Record) (bool, error) {
	r, ok := NewRecord(r.English, r.Meaning, r.Usage)
	if !ok {
		return false, fmt.Errorf("english and meaning are required")
	}

	if !fileExists(s.path) {
		if err := s.create(r); err != nil {
			return false, err
		}
		return true, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return false, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := s.sheetName(f)
	if err != nil {
		return false, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return false, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if containsKey(parseRows(rows), r.Key()) {
		return false, nil
	}

	next := len(rows) + 1
	if len(rows) == 0 {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return false, fmt.Errorf("write header: %w", err)
		}
		next = 2
	}
	if err := writeRow(f, sheet, next, r); err != nil {
		return false, err
	}
	if err := f.Save(); err != nil {
		return false, fmt.Errorf("save workbook: %w", err)
	}
	return true, nil
}

func (s *XLSXSource) create(r Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if s.sheet != "" && s.sheet != sheet {
		if err := f.SetSheetName(sheet, s.sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		sheet = s.sheet
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := writeRow(f, sheet, 2, r); err != nil {
		return err
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	return nil
}

func (s *XLSXSource) sheetName(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook %s has no sheets", s.path)
	}
	if s.sheet == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == s.sheet {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found in %s", s.sheet, s.path)
}

func writeRow(f *excelize.File, sheet string, row int, r Record) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	values := []any{r.English, r.Meaning, r.Usage}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
