// Package synonym holds the fixed English synonym table used to build the
// multiple-choice section of an exam. Lookups are offline and exact.
package synonym

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

const (
	minSynonyms = 3
	maxSynonyms = 4
)

var placeholders = []string{"similar word 1", "similar word 2", "similar word 3", "similar word 4"}

// Placeholders returns the list used for terms with no curated entry.
func Placeholders() []string {
	return slices.Clone(placeholders)
}

// Table maps case-folded English terms to ordered synonym lists. A Table is
// immutable after construction and safe for concurrent reads.
type Table struct {
	entries map[string][]string
}

// New builds a Table. Each list must hold 3–4 distinct non-empty synonyms.
func New(entries map[string][]string) (*Table, error) {
	t := &Table{entries: make(map[string][]string, len(entries))}
	for term, list := range entries {
		key := Normalize(term)
		if key == "" {
			return nil, fmt.Errorf("empty term in synonym table")
		}
		clean, err := cleanList(list)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", term, err)
		}
		t.entries[key] = clean
	}
	return t, nil
}

// Default returns the built-in table.
func Default() *Table {
	t, err := New(builtin)
	if err != nil {
		panic("synonym: invalid built-in table: " + err.Error())
	}
	return t
}

// SynonymsFor returns the synonyms of term, or the placeholder list when the
// term has no entry. The returned slice is a copy.
func (t *Table) SynonymsFor(term string) []string {
	if list, ok := t.entries[Normalize(term)]; ok {
		return slices.Clone(list)
	}
	return Placeholders()
}

// Has reports whether term has a curated entry.
func (t *Table) Has(term string) bool {
	_, ok := t.entries[Normalize(term)]
	return ok
}

// Len returns the number of curated entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Terms returns the curated terms in sorted order.
func (t *Table) Terms() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

// With returns a new Table holding t's entries overridden by extra.
func (t *Table) With(extra map[string][]string) (*Table, error) {
	merged := make(map[string][]string, len(t.entries)+len(extra))
	maps.Copy(merged, t.entries)
	for term, list := range extra {
		merged[Normalize(term)] = list
	}
	return New(merged)
}

// Normalize trims and case-folds a term for lookup.
func Normalize(term string) string {
	return cases.Fold().String(strings.TrimSpace(term))
}

func cleanList(list []string) ([]string, error) {
	if len(list) < minSynonyms || len(list) > maxSynonyms {
		return nil, fmt.Errorf("want %d-%d synonyms, got %d", minSynonyms, maxSynonyms, len(list))
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("empty synonym")
		}
		if slices.Contains(out, s) {
			return nil, fmt.Errorf("duplicate synonym %q", s)
		}
		out = append(out, s)
	}
	return out, nil
}
