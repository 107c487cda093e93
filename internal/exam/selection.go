package exam

import (
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

const (
	MinSample = 10
	MaxSample = 100
)

// Layout sizes the working sample and each section.
type Layout struct {
	Sample   int `json:"sample"`
	Section1 int `json:"section1"`
	Section2 int `json:"section2"`
	Section3 int `json:"section3"`
	Section4 int `json:"section4"`
	Section5 int `json:"section5"`
}

// DefaultLayout is the daily exam: 30 sampled words, 15/15 translation,
// 5 composition, 5 context and 10 synonym questions.
var DefaultLayout = Layout{Sample: 30, Section1: 15, Section2: 15, Section3: 5, Section4: 5, Section5: 10}

// NewLayout sizes a layout around sample words, splitting the sample evenly
// between the two translation sections.
func NewLayout(sample int) Layout {
	l := DefaultLayout
	l.Sample = sample
	l.Section1 = sample / 2
	l.Section2 = sample - l.Section1
	return l
}

// Validate checks the layout bounds.
func (l Layout) Validate() error {
	var errs []error
	if l.Sample < MinSample || l.Sample > MaxSample {
		errs = append(errs, fmt.Errorf("sample must be between %d and %d, got %d", MinSample, MaxSample, l.Sample))
	}
	for i, n := range []int{l.Section1, l.Section2, l.Section3, l.Section4, l.Section5} {
		if n < 0 {
			errs = append(errs, fmt.Errorf("section %d count must not be negative, got %d", i+1, n))
		}
	}
	if l.Section1+l.Section2 > l.Sample {
		errs = append(errs, fmt.Errorf("sections 1 and 2 need %d words but the sample holds %d", l.Section1+l.Section2, l.Sample))
	}
	return errors.Join(errs...)
}

// Selection holds the section subsets drawn from one sample. Sections 1 and 2
// partition the front of the sample; sections 3 to 5 are independent resamples
// and may overlap anything.
type Selection struct {
	Section1    []vocab.Record `json:"section1"`
	Section2    []vocab.Record `json:"section2"`
	Section3    []vocab.Record `json:"section3"`
	Section4    []vocab.Record `json:"section4"`
	Section5    []vocab.Record `json:"section5"`
	AllSelected []vocab.Record `json:"all_selected"`
}

// Questions returns the total number of questions across all sections.
func (s Selection) Questions() int {
	return len(s.Section1) + len(s.Section2) + len(s.Section3) + len(s.Section4) + len(s.Section5)
}

// Select draws a Selection from records. It never fails: short or empty
// input yields proportionally smaller sections.
func Select(records []vocab.Record, rng RandomSource, layout Layout) Selection {
	sample := head(Shuffle(rng, records), layout.Sample)

	s1 := head(sample, layout.Section1)
	rest := sample[len(s1):]

	return Selection{
		Section1:    s1,
		Section2:    head(rest, layout.Section2),
		Section3:    head(Shuffle(rng, sample), layout.Section3),
		Section4:    head(Shuffle(rng, sample), layout.Section4),
		Section5:    head(Shuffle(rng, sample), layout.Section5),
		AllSelected: sample,
	}
}

// head returns a copy of at most n leading items.
func head[T any](items []T, n int) []T {
	n = max(0, min(n, len(items)))
	out := make([]T, n)
	copy(out, items[:n])
	return out
}
