package exam

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/synonym"
	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

// ErrInsufficientVocabulary is returned in strict mode when the store holds
// fewer qualifying records than the layout samples.
var ErrInsufficientVocabulary = errors.New("insufficient vocabulary")

const choices = 4

// SynonymLookup resolves a term to its ordered synonyms.
type SynonymLookup interface {
	SynonymsFor(term string) []string
	Has(term string) bool
}

// SynonymQuestion is one multiple-choice item of section 5.
type SynonymQuestion struct {
	Record  vocab.Record `json:"record"`
	Options []string     `json:"options"`
	Answer  int          `json:"answer"`
}

// Correct returns the correct option.
func (q SynonymQuestion) Correct() string {
	return q.Options[q.Answer]
}

// PaperOptions controls how section 5 distractors are chosen.
type PaperOptions struct {
	// PeerDistractors uses the head synonym of other curated section 5 items
	// as distractors before falling back to placeholders. A peer whose term
	// or synonyms overlap the item's own is never used for that item.
	PeerDistractors bool
}

// Paper is one rendered-ready exam: the selection plus the option sets of
// section 5, fixed at construction.
type Paper struct {
	Date      time.Time         `json:"date"`
	Selection Selection         `json:"selection"`
	Synonyms  []SynonymQuestion `json:"synonyms"`
}

// NewPaper derives the section 5 option sets for sel once, using rng for the
// option order.
func NewPaper(sel Selection, date time.Time, lookup SynonymLookup, rng RandomSource, opts PaperOptions) *Paper {
	p := &Paper{
		Date:      date,
		Selection: sel,
		Synonyms:  make([]SynonymQuestion, 0, len(sel.Section5)),
	}

	var peers []peer
	if opts.PeerDistractors {
		for _, r := range sel.Section5 {
			if lookup.Has(r.English) {
				peers = append(peers, newPeer(r.English, lookup.SynonymsFor(r.English)))
			}
		}
	}

	for _, r := range sel.Section5 {
		own := lookup.SynonymsFor(r.English)
		correct := own[0]

		var candidates []string
		if lookup.Has(r.English) {
			self := newPeer(r.English, own)
			var heads []string
			for _, pr := range peers {
				if !pr.overlaps(self) {
					heads = append(heads, pr.head)
				}
			}
			candidates = Shuffle(rng, heads)
		}
		distractors := pickDistractors(candidates, own, r.English)

		options := Shuffle(rng, append([]string{correct}, distractors...))
		p.Synonyms = append(p.Synonyms, SynonymQuestion{
			Record:  r,
			Options: options,
			Answer:  slices.Index(options, correct),
		})
	}
	return p
}

// peer is a curated item seen as a distractor source: its head synonym and
// the normalized set of its term and synonyms.
type peer struct {
	head    string
	related map[string]bool
}

func newPeer(term string, synonyms []string) peer {
	related := map[string]bool{synonym.Normalize(term): true}
	for _, s := range synonyms {
		related[synonym.Normalize(s)] = true
	}
	return peer{head: synonyms[0], related: related}
}

// overlaps reports whether the two items share a term or synonym, which also
// holds for an item compared with itself.
func (p peer) overlaps(other peer) bool {
	for k := range other.related {
		if p.related[k] {
			return true
		}
	}
	return false
}

// pickDistractors takes up to three candidates that are not one of the
// item's own synonyms and tops the list up with placeholders.
func pickDistractors(candidates, own []string, english string) []string {
	exclude := func(s string, picked []string) bool {
		key := synonym.Normalize(s)
		if key == synonym.Normalize(english) {
			return true
		}
		for _, o := range own {
			if synonym.Normalize(o) == key {
				return true
			}
		}
		for _, p := range picked {
			if synonym.Normalize(p) == key {
				return true
			}
		}
		return false
	}

	picked := make([]string, 0, choices-1)
	for _, c := range candidates {
		if len(picked) == choices-1 {
			return picked
		}
		if !exclude(c, picked) {
			picked = append(picked, c)
		}
	}
	for _, ph := range synonym.Placeholders() {
		if len(picked) == choices-1 {
			break
		}
		if ph != own[0] && !slices.Contains(picked, ph) {
			picked = append(picked, ph)
		}
	}
	return picked
}

// Generator builds papers from a vocabulary store.
type Generator struct {
	Synonyms        SynonymLookup
	Rand            RandomSource
	Layout          Layout
	Strict          bool
	PeerDistractors bool
}

// Generate selects from records and builds the paper for date. In strict
// mode a store smaller than the layout's sample fails with
// ErrInsufficientVocabulary.
func (g *Generator) Generate(records []vocab.Record, date time.Time) (*Paper, error) {
	layout := g.Layout
	if layout == (Layout{}) {
		layout = DefaultLayout
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if g.Strict && len(records) < layout.Sample {
		return nil, fmt.Errorf("%w: have %d records, need %d", ErrInsufficientVocabulary, len(records), layout.Sample)
	}

	sel := Select(records, g.Rand, layout)
	return NewPaper(sel, date, g.Synonyms, g.Rand, PaperOptions{PeerDistractors: g.PeerDistractors}), nil
}
