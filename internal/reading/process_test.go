package reading_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/pai-vocab/internal/ai"
	"github.com/p-n-ai/pai-vocab/internal/reading"
)

// promptCompleter answers each kind of prompt with a canned reply.
type promptCompleter struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (c *promptCompleter) Complete(_ context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case strings.Contains(prompt, "한국어로 번역해주세요"):
		c.calls = append(c.calls, "translate")
	case strings.Contains(prompt, "JSON 배열로"):
		c.calls = append(c.calls, "expressions")
	case strings.Contains(prompt, "통역 연습을 만들어주세요"):
		c.calls = append(c.calls, "exercise")
	}
	if c.fail {
		return ai.CompletionResponse{}, errors.New("all providers failed")
	}

	switch c.calls[len(c.calls)-1] {
	case "translate":
		_, original, _ := strings.Cut(prompt, "원문: ")
		original, _, _ = strings.Cut(original, "\n")
		return ai.CompletionResponse{Content: "번역된 문단: " + original}, nil
	case "expressions":
		return ai.CompletionResponse{Content: "Here you go:\n```json\n" + `[
			{"expression":"brace for","korean_meaning":"~에 대비하다","synonyms":["prepare for","gear up for","ready for"],"context":"Hospitals brace for winter.","usage_note":"뉴스에서 자주 사용","formality":"격식체"},
			{"expression":"","korean_meaning":"빈 표현"},
			{"expression":"strain","korean_meaning":"부담","synonyms":[],"context":"","usage_note":"","formality":"전문용어"}
		]` + "\n```"}, nil
	default:
		return ai.CompletionResponse{Content: `{"paragraph_number":99,"korean_text":"무시됨","interpretation_approach":"의미 단위로 끊어 옮긴다","key_challenges":["시제"],"professional_translation":"Hospitals are preparing.","alternative_versions":["Hospitals are getting ready."],"interpretation_notes":["주어를 먼저"]}`}, nil
	}
}

func fiveParagraphArticle() reading.Article {
	return reading.Article{
		Title:      "Hospitals Brace for Winter",
		URL:        "https://nyt.test/hospitals.html",
		Topic:      "medical",
		Published:  "2026-10-17T09:00:00+0000",
		Paragraphs: []string{"One.", "Two.", "Three.", "Four.", "Five."},
	}
}

var processedAt = time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC)

func TestProcessor_Process(t *testing.T) {
	c := &promptCompleter{}
	m, err := reading.NewProcessor(c).WithClock(func() time.Time { return processedAt }).Process(context.Background(), fiveParagraphArticle())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	wantStructure := reading.Structure{Total: 5, English: 3, Korean: 2, TranslationIndices: []int{4, 5}}
	if diff := cmp.Diff(wantStructure, m.Mixed.Structure); diff != "" {
		t.Errorf("Structure mismatch (-want +got):\n%s", diff)
	}
	wantParagraphs := []reading.Paragraph{
		{Number: 1, Type: reading.English, Content: "One."},
		{Number: 2, Type: reading.English, Content: "Two."},
		{Number: 3, Type: reading.English, Content: "Three."},
		{Number: 4, Type: reading.Korean, Content: "번역된 문단: Four."},
		{Number: 5, Type: reading.Korean, Content: "번역된 문단: Five."},
	}
	if diff := cmp.Diff(wantParagraphs, m.Mixed.Paragraphs); diff != "" {
		t.Errorf("Paragraphs mismatch (-want +got):\n%s", diff)
	}
	if m.Mixed.Source != "New York Times" || !m.Mixed.ProcessingDate.Equal(processedAt) || m.Mixed.ReadingInstruction == "" {
		t.Errorf("Mixed = %+v", m.Mixed)
	}

	exprs := m.Commentary.Expressions.Expressions
	if len(exprs) != 2 || exprs[0].Expression != "brace for" || exprs[1].Expression != "strain" {
		t.Errorf("Expressions = %+v", exprs)
	}

	ex := m.Commentary.Practice.Exercises
	if len(ex) != 2 {
		t.Fatalf("got %d exercises, want 2", len(ex))
	}
	if ex[0].ParagraphNumber != 4 || ex[0].KoreanText != "번역된 문단: Four." || ex[0].ProfessionalTranslation != "Hospitals are preparing." {
		t.Errorf("exercise[0] = %+v", ex[0])
	}
	if diff := cmp.Diff([]int{4, 5}, m.Commentary.Practice.KoreanParagraphs); diff != "" {
		t.Errorf("KoreanParagraphs mismatch (-want +got):\n%s", diff)
	}
	if m.Commentary.SourceArticle.URL != "https://nyt.test/hospitals.html" {
		t.Errorf("SourceArticle = %+v", m.Commentary.SourceArticle)
	}

	want := []string{"translate", "translate", "expressions", "exercise", "exercise"}
	if diff := cmp.Diff(want, c.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessor_ProcessFallbacks(t *testing.T) {
	c := &promptCompleter{fail: true}
	m, err := reading.NewProcessor(c).Process(context.Background(), fiveParagraphArticle())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got := m.Mixed.Paragraphs[4]; got.Type != reading.Korean || got.Content != "Five." {
		t.Errorf("failed translation should keep the original text, got %+v", got)
	}
	if len(m.Commentary.Expressions.Expressions) != 0 {
		t.Errorf("Expressions = %+v, want none", m.Commentary.Expressions.Expressions)
	}
	for _, ex := range m.Commentary.Practice.Exercises {
		if ex.ProfessionalTranslation != "Translation exercise could not be generated" {
			t.Errorf("exercise = %+v, want the placeholder", ex)
		}
	}
}

func TestProcessor_ShortArticle(t *testing.T) {
	a := fiveParagraphArticle()
	a.Paragraphs = []string{"Only."}

	m, err := reading.NewProcessor(&promptCompleter{}).Process(context.Background(), a)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := reading.Structure{Total: 1, English: 0, Korean: 1, TranslationIndices: []int{1}}
	if diff := cmp.Diff(want, m.Mixed.Structure); diff != "" {
		t.Errorf("Structure mismatch (-want +got):\n%s", diff)
	}

	a.Paragraphs = nil
	if _, err := reading.NewProcessor(&promptCompleter{}).Process(context.Background(), a); err == nil {
		t.Error("Process() should reject an article without paragraphs")
	}
}
