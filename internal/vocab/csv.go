package vocab

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// CSVSource reads vocabulary from a comma-separated file with a header row.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV-backed source.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string {
	return s.path
}

func (s *CSVSource) Load(_ context.Context) ([]Record, error) {
	rows, err := readCSVRows(s.path)
	if err != nil {
		return nil, err
	}
	return parseRows(rows), nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable column count

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append adds r as a new line unless the term is already present. A missing
// or empty file gets the header row first.
func (s *CSVSource) Append(_ context.Context, r Record) (bool, error) {
	r, ok := NewRecord(r.English, r.Meaning, r.Usage)
	if !ok {
		return false, fmt.Errorf("english and meaning are required")
	}

	rows, err := readCSVRows(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if containsKey(parseRows(rows), r.Key()) {
		return false, nil
	}

	needHeader := len(rows) == 0
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if needHeader {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return false, fmt.Errorf("open CSV for append: %w", err)
	}
	defer f.Close()

	if !needHeader && !endsWithNewline(s.path) {
		if _, err := f.WriteString("\n"); err != nil {
			return false, fmt.Errorf("write row separator: %w", err)
		}
	}

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(header); err != nil {
			return false, fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write([]string{r.English, r.Meaning, r.Usage}); err != nil {
		return false, fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("flush CSV: %w", err)
	}
	return true, nil
}

func endsWithNewline(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return true
	}
	return data[len(data)-1] == '\n'
}
