package reading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/ai"
)

const (
	// translatedParagraphs is how many trailing paragraphs become Korean.
	translatedParagraphs = 2
	maxExpressions       = 10

	sourceName         = "New York Times"
	readingInstruction = "영어 문단은 이해하며 읽고, 한글 문단은 영어로 번역해보세요."
	exerciseFallback   = "Translation exercise could not be generated"
)

// Paragraph kinds in the mixed content.
const (
	English = "english"
	Korean  = "korean"
)

// Paragraph is one numbered paragraph of the mixed content.
type Paragraph struct {
	Number  int    `json:"paragraph_number"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Structure counts the paragraph kinds. TranslationIndices are 1-based.
type Structure struct {
	Total              int   `json:"total_paragraphs"`
	English            int   `json:"english_paragraphs"`
	Korean             int   `json:"korean_paragraphs"`
	TranslationIndices []int `json:"translation_indices"`
}

// MixedContent is the article with its last paragraphs in Korean.
type MixedContent struct {
	Title              string      `json:"title"`
	Source             string      `json:"source"`
	Topic              string      `json:"topic"`
	PublishedDate      string      `json:"published_date"`
	ProcessingDate     time.Time   `json:"processing_date"`
	Structure          Structure   `json:"content_structure"`
	Paragraphs         []Paragraph `json:"paragraphs"`
	ReadingInstruction string      `json:"reading_instruction"`
}

// Expression is a notable phrase from the English paragraphs.
type Expression struct {
	Expression    string   `json:"expression"`
	KoreanMeaning string   `json:"korean_meaning"`
	Synonyms      []string `json:"synonyms"`
	Context       string   `json:"context"`
	UsageNote     string   `json:"usage_note"`
	Formality     string   `json:"formality"`
}

// Exercise is a Korean-to-English interpretation drill for one paragraph.
type Exercise struct {
	ParagraphNumber         int      `json:"paragraph_number"`
	KoreanText              string   `json:"korean_text"`
	InterpretationApproach  string   `json:"interpretation_approach,omitempty"`
	KeyChallenges           []string `json:"key_challenges,omitempty"`
	ProfessionalTranslation string   `json:"professional_translation"`
	AlternativeVersions     []string `json:"alternative_versions,omitempty"`
	InterpretationNotes     []string `json:"interpretation_notes,omitempty"`
}

// SourceRef points back at the article.
type SourceRef struct {
	Title string `json:"title"`
	Topic string `json:"topic"`
	URL   string `json:"url"`
}

// ExpressionPart is part 1 of the commentary.
type ExpressionPart struct {
	Description string       `json:"description"`
	Expressions []Expression `json:"expressions"`
}

// PracticePart is part 2 of the commentary.
type PracticePart struct {
	Description      string     `json:"description"`
	KoreanParagraphs []int      `json:"korean_paragraphs"`
	Exercises        []Exercise `json:"translation_exercises"`
}

// Commentary holds the expression notes and interpretation exercises.
type Commentary struct {
	Title          string         `json:"title"`
	SourceArticle  SourceRef      `json:"source_article"`
	ProcessingDate time.Time      `json:"processing_date"`
	Expressions    ExpressionPart `json:"part_1_expressions"`
	Practice       PracticePart   `json:"part_2_translation_practice"`
}

// Materials is everything produced from one article.
type Materials struct {
	Mixed      MixedContent
	Commentary Commentary
}

// Processor turns an article into study materials with a completion provider.
type Processor struct {
	completer ai.Completer
	now       func() time.Time
}

// NewProcessor creates a Processor backed by c, usually an *ai.Router.
func NewProcessor(c ai.Completer) *Processor {
	return &Processor{completer: c, now: time.Now}
}

// WithClock replaces the processing timestamp source. Used by tests.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process translates the last paragraphs, extracts expressions from the
// English ones and builds an exercise for each translated paragraph. A failed
// translation keeps the English text; a failed exercise gets a placeholder.
func (p *Processor) Process(ctx context.Context, a Article) (Materials, error) {
	if len(a.Paragraphs) == 0 {
		return Materials{}, errors.New("article has no paragraphs")
	}
	start := time.Now()
	now := p.now()

	translated := translationIndices(len(a.Paragraphs), translatedParagraphs)

	mixed := MixedContent{
		Title:              a.Title,
		Source:             sourceName,
		Topic:              a.Topic,
		PublishedDate:      a.Published,
		ProcessingDate:     now,
		ReadingInstruction: readingInstruction,
	}
	var (
		english []string
		korean  = map[int]string{}
	)
	for i, text := range a.Paragraphs {
		para := Paragraph{Number: i + 1, Type: English, Content: text}
		if slices.Contains(translated, i) {
			if err := ctx.Err(); err != nil {
				return Materials{}, err
			}
			para.Type = Korean
			para.Content = p.translate(ctx, text, a.Topic)
			korean[i] = para.Content
		} else {
			english = append(english, text)
		}
		mixed.Paragraphs = append(mixed.Paragraphs, para)
	}

	numbers := make([]int, len(translated))
	for i, idx := range translated {
		numbers[i] = idx + 1
	}
	mixed.Structure = Structure{
		Total:              len(a.Paragraphs),
		English:            len(a.Paragraphs) - len(translated),
		Korean:             len(translated),
		TranslationIndices: numbers,
	}

	expressions := p.expressions(ctx, strings.Join(english, " "), a.Topic)

	exercises := make([]Exercise, 0, len(translated))
	for _, idx := range translated {
		if err := ctx.Err(); err != nil {
			return Materials{}, err
		}
		exercises = append(exercises, p.exercise(ctx, korean[idx], idx+1, a.Topic))
	}

	commentary := Commentary{
		Title:          "해설 및 통역 연습 - " + a.Title,
		SourceArticle:  SourceRef{Title: a.Title, Topic: a.Topic, URL: a.URL},
		ProcessingDate: now,
		Expressions: ExpressionPart{
			Description: fmt.Sprintf("원문에서 추출한 중요 영어 표현 %d개", maxExpressions),
			Expressions: expressions,
		},
		Practice: PracticePart{
			Description:      "한글 문단의 통역 연습 (한→영)",
			KoreanParagraphs: numbers,
			Exercises:        exercises,
		},
	}

	slog.Info("article processed",
		"operation", "reading.process",
		"title", a.Title,
		"paragraphs", len(a.Paragraphs),
		"expressions", len(expressions),
		"elapsed", time.Since(start),
	)
	return Materials{Mixed: mixed, Commentary: commentary}, nil
}

// translationIndices returns the 0-based indices of the last count paragraphs.
func translationIndices(total, count int) []int {
	first := max(total-count, 0)
	out := make([]int, 0, total-first)
	for i := first; i < total; i++ {
		out = append(out, i)
	}
	return out
}

const translatePrompt = `다음 영어 문단을 자연스럽고 정확한 한국어로 번역해주세요.

주제: %s
원문: %s

번역할 때 고려사항:
- 자연스러운 한국어 표현 사용
- 전문 용어는 적절한 한국어 용어로 번역
- 문맥과 뉘앙스 유지
- 읽기 쉬운 문장 구조로 번역

번역문만 제공해주세요.`

func (p *Processor) translate(ctx context.Context, text, topic string) string {
	resp, err := p.completer.Complete(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: fmt.Sprintf(translatePrompt, topic, text)}},
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		slog.Error("translation failed, keeping the original", "operation", "reading.translate", "error", err)
		return text
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return text
	}
	return out
}

const expressionsPrompt = `다음 영어 텍스트에서 중요하고 유용한 표현 %d개를 추출하여 JSON 배열로 제공해주세요.

주제: %s
텍스트: %s

각 표현에 대해 다음 정보를 포함해주세요:
{
    "expression": "추출된 표현",
    "korean_meaning": "한글 의미",
    "synonyms": ["동의어1", "동의어2", "동의어3"],
    "context": "원문에서의 사용 예",
    "usage_note": "사용법 설명",
    "formality": "격식도 (격식체/비격식체/전문용어)"
}

응답은 JSON 배열 형태로만 제공해주세요.`

func (p *Processor) expressions(ctx context.Context, text, topic string) []Expression {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	resp, err := p.completer.Complete(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: fmt.Sprintf(expressionsPrompt, maxExpressions, topic, text)}},
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		slog.Error("expression extraction failed", "operation", "reading.expressions", "error", err)
		return nil
	}

	raw, ok := extractJSON(resp.Content, '[', ']')
	if !ok {
		slog.Warn("no JSON array in expression answer", "operation", "reading.expressions")
		return nil
	}
	var out []Expression
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("unparseable expression answer", "operation", "reading.expressions", "error", err)
		return nil
	}
	out = slices.DeleteFunc(out, func(e Expression) bool { return strings.TrimSpace(e.Expression) == "" })
	if len(out) > maxExpressions {
		out = out[:maxExpressions]
	}
	return out
}

const exercisePrompt = `다음 한글 문장을 영어로 번역하는 통역 연습을 만들어주세요.

주제: %s
한글 문장: %s

다음 형식으로 JSON 응답해주세요:
{
    "paragraph_number": %d,
    "korean_text": %s,
    "interpretation_approach": "통역 관점에서의 번역 접근법",
    "key_challenges": ["번역 시 주의할 점1", "주의할 점2", "주의할 점3"],
    "professional_translation": "모범 번역문",
    "alternative_versions": ["대안 번역1", "대안 번역2"],
    "interpretation_notes": ["통역 팁1", "통역 팁2", "통역 팁3"]
}`

func (p *Processor) exercise(ctx context.Context, korean string, number int, topic string) Exercise {
	fallback := Exercise{ParagraphNumber: number, KoreanText: korean, ProfessionalTranslation: exerciseFallback}

	quoted, _ := json.Marshal(korean)
	resp, err := p.completer.Complete(ctx, ai.CompletionRequest{
		Messages:    []ai.Message{{Role: "user", Content: fmt.Sprintf(exercisePrompt, topic, korean, number, quoted)}},
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		slog.Error("exercise generation failed", "operation", "reading.exercise", "paragraph", number, "error", err)
		return fallback
	}

	raw, ok := extractJSON(resp.Content, '{', '}')
	if !ok {
		slog.Warn("no JSON object in exercise answer", "operation", "reading.exercise", "paragraph", number)
		return fallback
	}
	var ex Exercise
	if err := json.Unmarshal([]byte(raw), &ex); err != nil || strings.TrimSpace(ex.ProfessionalTranslation) == "" {
		slog.Warn("unusable exercise answer", "operation", "reading.exercise", "paragraph", number, "error", err)
		return fallback
	}
	ex.ParagraphNumber = number
	ex.KoreanText = korean
	return ex
}

// extractJSON cuts the outermost first...last span out of a provider answer,
// ignoring code fences and surrounding prose.
func extractJSON(content string, first, last byte) (string, bool) {
	s := strings.TrimSpace(content)
	if _, after, ok := strings.Cut(s, "```json"); ok {
		s = after
	} else if _, after, ok := strings.Cut(s, "```"); ok {
		s = after
	}
	if before, _, ok := strings.Cut(s, "```"); ok {
		s = before
	}
	start := strings.IndexByte(s, first)
	end := strings.LastIndexByte(s, last)
	if start == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}
