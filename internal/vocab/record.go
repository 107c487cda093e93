// Package vocab loads vocabulary records from spreadsheets, CSV files and PostgreSQL.
package vocab

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Record is one English term with its meaning and an optional usage sentence.
type Record struct {
	English string `json:"english"`
	Meaning string `json:"meaning"`
	Usage   string `json:"usage,omitempty"`
}

// NewRecord normalizes raw cell values into a Record. It reports false when
// English or Meaning is empty after trimming.
func NewRecord(english, meaning, usage string) (Record, bool) {
	r := Record{
		English: normalizeCell(english),
		Meaning: normalizeCell(meaning),
		Usage:   normalizeCell(usage),
	}
	return r, r.English != "" && r.Meaning != ""
}

// FromRow maps a tabular row laid out as [english, meaning, usage].
func FromRow(row []string) (Record, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return NewRecord(cell(0), cell(1), cell(2))
}

// Key returns the case-folded English term used for duplicate detection.
func (r Record) Key() string {
	return FoldKey(r.English)
}

// FoldKey case-folds a term for comparisons.
func FoldKey(term string) string {
	return cases.Fold().String(normalizeCell(term))
}

// Spreadsheets saved on macOS frequently carry NFD-decomposed Hangul.
func normalizeCell(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Source produces vocabulary records.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Record, error)
}

// Appender adds a record to a source unless its English term already exists.
type Appender interface {
	Append(ctx context.Context, r Record) (bool, error)
}

// SourceLoadError reports an unreadable or malformed vocabulary source.
type SourceLoadError struct {
	Source string
	Err    error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("loading vocabulary from %s: %v", e.Source, e.Err)
}

func (e *SourceLoadError) Unwrap() error {
	return e.Err
}

// Load reads every qualifying record from src. A failing source is logged as
// a SourceLoadError and yields an empty, non-nil slice.
func Load(ctx context.Context, src Source) []Record {
	start := time.Now()

	records, err := src.Load(ctx)
	if err != nil {
		loadErr := &SourceLoadError{Source: src.Name(), Err: err}
		slog.Error("vocabulary source unavailable, continuing with empty store",
			"operation", "vocab.load",
			"source", src.Name(),
			"elapsed", time.Since(start),
			"error", loadErr,
		)
		return []Record{}
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if nr, ok := NewRecord(r.English, r.Meaning, r.Usage); ok {
			out = append(out, nr)
		}
	}

	slog.Info("vocabulary loaded",
		"operation", "vocab.load",
		"source", src.Name(),
		"records", len(out),
		"skipped", len(records)-len(out),
		"elapsed", time.Since(start),
	)
	return out
}

// Open picks a file-backed source for path. kind is "xlsx", "csv" or empty to
// infer from the extension; anything unrecognized is treated as a workbook.
func Open(path, kind, sheet string) Source {
	if kind == "" {
		if strings.HasSuffix(strings.ToLower(path), ".csv") {
			kind = "csv"
		}
	}
	if kind == "csv" {
		return NewCSVSource(path)
	}
	return NewXLSXSource(path, sheet)
}

func parseRows(rows [][]string) []Record {
	if len(rows) <= 1 {
		return []Record{}
	}
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if r, ok := FromRow(row); ok {
			records = append(records, r)
		}
	}
	return records
}

func containsKey(records []Record, key string) bool {
	for _, r := range records {
		if r.Key() == key {
			return true
		}
	}
	return false
}
