package exam_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/exam"
	"github.com/p-n-ai/pai-vocab/internal/synonym"
	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

var testDate = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func curatedRecords() []vocab.Record {
	return []vocab.Record{
		{English: "secure", Meaning: "확보하다"},
		{English: "obtain", Meaning: "얻다"},
		{English: "abandon", Meaning: "버리다"},
		{English: "cease", Meaning: "중단하다"},
		{English: "thrive", Meaning: "번창하다"},
		{English: "vague", Meaning: "모호한"},
		{English: "hinder", Meaning: "방해하다"},
		{English: "yield", Meaning: "산출하다"},
		{English: "tedious", Meaning: "지루한"},
		{English: "notion", Meaning: "개념"},
	}
}

func section5Only(records []vocab.Record) exam.Selection {
	return exam.Selection{Section5: records, AllSelected: records}
}

func TestNewPaper_CorrectSynonymExactlyOnce(t *testing.T) {
	table := synonym.Default()
	records := append(curatedRecords(), vocab.Record{English: "unlisted", Meaning: "없음"})

	for _, peer := range []bool{true, false} {
		for seed := range uint64(20) {
			p := exam.NewPaper(section5Only(records), testDate, table, exam.NewSource(seed, 1), exam.PaperOptions{PeerDistractors: peer})

			if len(p.Synonyms) != len(records) {
				t.Fatalf("len(Synonyms) = %d, want %d", len(p.Synonyms), len(records))
			}
			for i, q := range p.Synonyms {
				if q.Record != records[i] {
					t.Errorf("question %d is %v, want %v", i, q.Record, records[i])
				}
				if len(q.Options) != 4 {
					t.Fatalf("%s: %d options, want 4", q.Record.English, len(q.Options))
				}
				want := table.SynonymsFor(q.Record.English)[0]
				if q.Correct() != want {
					t.Errorf("%s: correct = %q, want %q", q.Record.English, q.Correct(), want)
				}
				count := 0
				for _, o := range q.Options {
					if o == want {
						count++
					}
				}
				if count != 1 {
					t.Errorf("%s: correct option appears %d times in %v", q.Record.English, count, q.Options)
				}
				seen := map[string]bool{}
				for _, o := range q.Options {
					if seen[o] {
						t.Errorf("%s: duplicate option %q", q.Record.English, o)
					}
					seen[o] = true
				}
			}
		}
	}
}

func TestNewPaper_PeerDistractorsAvoidOwnSynonyms(t *testing.T) {
	table := synonym.Default()
	records := curatedRecords()

	for seed := range uint64(30) {
		p := exam.NewPaper(section5Only(records), testDate, table, exam.NewSource(seed, 2), exam.PaperOptions{PeerDistractors: true})

		for _, q := range p.Synonyms {
			own := table.SynonymsFor(q.Record.English)
			for i, o := range q.Options {
				if i == q.Answer {
					continue
				}
				if slices.Contains(own, o) {
					t.Errorf("%s: distractor %q is one of its own synonyms", q.Record.English, o)
				}
				if slices.Contains(synonym.Placeholders(), o) {
					t.Errorf("%s: placeholder %q used although peers were available", q.Record.English, o)
				}
			}
		}
	}
}

func TestNewPaper_PeerDistractorsSkipOverlappingPeers(t *testing.T) {
	table, err := synonym.New(map[string][]string{
		"hinder": {"impede", "obstruct", "block"},
		"curb":   {"restrain", "impede", "check"},
		"halt":   {"stop", "block", "cease"},
		"thrive": {"flourish", "prosper", "boom"},
		"vague":  {"unclear", "hazy", "ambiguous"},
		"notion": {"idea", "concept", "belief"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var records []vocab.Record
	for _, w := range []string{"hinder", "curb", "halt", "thrive", "vague", "notion"} {
		records = append(records, vocab.Record{English: w, Meaning: "뜻"})
	}

	for seed := range uint64(30) {
		p := exam.NewPaper(section5Only(records), testDate, table, exam.NewSource(seed, 3), exam.PaperOptions{PeerDistractors: true})

		hinder := p.Synonyms[0]
		got := slices.Clone(hinder.Options)
		slices.Sort(got)
		want := []string{"flourish", "idea", "impede", "unclear"}
		if !slices.Equal(got, want) {
			t.Errorf("seed %d: hinder options = %v, want %v", seed, got, want)
		}

		curb := p.Synonyms[1]
		if slices.Contains(curb.Options, "impede") {
			t.Errorf("seed %d: curb offered hinder's head synonym %q", seed, "impede")
		}
	}
}

func TestNewPaper_PlaceholderFallback(t *testing.T) {
	table := synonym.Default()
	placeholders := synonym.Placeholders()

	tests := []struct {
		name    string
		records []vocab.Record
		peer    bool
		want    []string
	}{
		{
			name:    "placeholder only",
			records: []vocab.Record{{English: "secure", Meaning: "확보하다"}, {English: "thrive", Meaning: "번창하다"}},
			peer:    false,
			want:    []string{"obtain", placeholders[0], placeholders[1], placeholders[2]},
		},
		{
			name:    "single curated item has no peers",
			records: []vocab.Record{{English: "secure", Meaning: "확보하다"}},
			peer:    true,
			want:    []string{"obtain", placeholders[0], placeholders[1], placeholders[2]},
		},
		{
			name:    "unknown term",
			records: []vocab.Record{{English: "unknown_term", Meaning: "?"}, {English: "secure", Meaning: "확보하다"}},
			peer:    true,
			want:    placeholders,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := exam.NewPaper(section5Only(tt.records), testDate, table, exam.NewSource(9, 9), exam.PaperOptions{PeerDistractors: tt.peer})
			got := slices.Clone(p.Synonyms[0].Options)
			slices.Sort(got)
			want := slices.Clone(tt.want)
			slices.Sort(want)
			if !slices.Equal(got, want) {
				t.Errorf("options = %v, want %v", got, want)
			}
		})
	}
}

func TestNewPaper_PeerShortfallToppedUp(t *testing.T) {
	table := synonym.Default()
	records := []vocab.Record{
		{English: "secure", Meaning: "확보하다"},
		{English: "thrive", Meaning: "번창하다"},
	}

	p := exam.NewPaper(section5Only(records), testDate, table, exam.NewSource(4, 4), exam.PaperOptions{PeerDistractors: true})

	q := p.Synonyms[0]
	if !slices.Contains(q.Options, "flourish") {
		t.Errorf("options %v lack the peer head synonym", q.Options)
	}
	placeholders := 0
	for _, o := range q.Options {
		if slices.Contains(synonym.Placeholders(), o) {
			placeholders++
		}
	}
	if placeholders != 2 {
		t.Errorf("options %v have %d placeholders, want 2", q.Options, placeholders)
	}
}

func TestGenerator_Generate(t *testing.T) {
	g := &exam.Generator{
		Synonyms:        synonym.Default(),
		Rand:            exam.NewSource(1, 1),
		PeerDistractors: true,
	}

	p, err := g.Generate(makeRecords(40), testDate)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(p.Selection.AllSelected) != 30 {
		t.Errorf("zero layout should fall back to default, got sample %d", len(p.Selection.AllSelected))
	}
	if len(p.Synonyms) != len(p.Selection.Section5) {
		t.Errorf("len(Synonyms) = %d, want %d", len(p.Synonyms), len(p.Selection.Section5))
	}
	if !p.Date.Equal(testDate) {
		t.Errorf("Date = %v, want %v", p.Date, testDate)
	}
}

func TestGenerator_StrictShortfall(t *testing.T) {
	g := &exam.Generator{Synonyms: synonym.Default(), Rand: exam.NewSource(1, 1), Strict: true}

	_, err := g.Generate(makeRecords(5), testDate)
	if !errors.Is(err, exam.ErrInsufficientVocabulary) {
		t.Fatalf("Generate() error = %v, want ErrInsufficientVocabulary", err)
	}

	if _, err := g.Generate(makeRecords(30), testDate); err != nil {
		t.Errorf("Generate() with a full store error: %v", err)
	}
}

func TestGenerator_PermissiveShortStore(t *testing.T) {
	g := &exam.Generator{Synonyms: synonym.Default(), Rand: exam.NewSource(1, 1)}

	p, err := g.Generate(makeRecords(5), testDate)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(p.Selection.AllSelected) != 5 || len(p.Synonyms) != 5 {
		t.Errorf("got sample %d, synonyms %d, want 5 and 5", len(p.Selection.AllSelected), len(p.Synonyms))
	}
}

func TestGenerator_InvalidLayout(t *testing.T) {
	g := &exam.Generator{Synonyms: synonym.Default(), Rand: exam.NewSource(1, 1), Layout: exam.NewLayout(5)}

	if _, err := g.Generate(makeRecords(30), testDate); err == nil {
		t.Fatal("expected error for an out-of-range layout")
	}
}
