// Package lexicon looks up English words through an AI provider and turns the
// answer into a vocabulary record.
package lexicon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/ai"
	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

// maxSynonyms caps the synonyms kept from a lookup.
const maxSynonyms = 3

// ErrMalformedCard is returned when a provider answer holds no usable card.
var ErrMalformedCard = errors.New("malformed word card")

// Card is the lookup result for one word or phrase.
type Card struct {
	Word               string   `json:"word"`
	Meaning            string   `json:"meaning"`
	Synonyms           []string `json:"synonyms"`
	Example            string   `json:"example"`
	ExampleTranslation string   `json:"example_translation"`
}

// Record converts the card into a vocabulary row. The example sentence becomes
// the usage column.
func (c Card) Record() (vocab.Record, bool) {
	return vocab.NewRecord(c.Word, c.Meaning, c.Example)
}

const systemPrompt = "You are an English-Korean dictionary for Korean learners. Reply with a single JSON object and nothing else."

const userPrompt = `다음 영어 단어/표현에 대해 정확한 정보를 JSON 형태로 제공해주세요:

단어: %q

다음 형식으로 응답해주세요:
{
    "word": "단어 원형",
    "meaning": "주요 한글 의미",
    "synonyms": ["동의어1", "동의어2", "동의어3"],
    "example": "영어 예문",
    "example_translation": "예문 한글 번역"
}

주의사항:
- 가장 일반적이고 중요한 의미를 제공하세요
- 동의어는 실용적인 것들로 최대 3개까지
- 예문은 실생활에서 사용 가능한 자연스러운 문장으로
- 구문의 경우 전체를 하나의 단위로 처리`

// Definer asks a completion provider for word cards.
type Definer struct {
	completer ai.Completer
}

// NewDefiner creates a Definer backed by c, usually an *ai.Router.
func NewDefiner(c ai.Completer) *Definer {
	return &Definer{completer: c}
}

// Define looks up term.
func (d *Definer) Define(ctx context.Context, term string) (Card, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Card{}, fmt.Errorf("empty term")
	}

	start := time.Now()
	resp, err := d.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPrompt, term)},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
	})
	if err != nil {
		return Card{}, fmt.Errorf("looking up %q: %w", term, err)
	}

	card, err := ParseCard(resp.Content)
	if err != nil {
		slog.Warn("unusable word card",
			"operation", "lexicon.define",
			"term", term,
			"model", resp.Model,
			"error", err,
		)
		return Card{}, fmt.Errorf("looking up %q: %w", term, err)
	}

	slog.Info("word defined",
		"operation", "lexicon.define",
		"term", term,
		"word", card.Word,
		"model", resp.Model,
		"elapsed", time.Since(start),
	)
	return card, nil
}

// rawCard accepts the legacy korean_* field names as well.
type rawCard struct {
	Card
	KoreanMeaning string `json:"korean_meaning"`
	KoreanExample string `json:"korean_example"`
}

// ParseCard extracts the JSON object from a provider answer. Code fences and
// surrounding prose are ignored; word and meaning are required.
func ParseCard(content string) (Card, error) {
	s := stripFence(content)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return Card{}, fmt.Errorf("%w: no JSON object in answer", ErrMalformedCard)
	}

	var raw rawCard
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil {
		return Card{}, fmt.Errorf("%w: %v", ErrMalformedCard, err)
	}

	card := raw.Card
	if card.Meaning == "" {
		card.Meaning = raw.KoreanMeaning
	}
	if card.ExampleTranslation == "" {
		card.ExampleTranslation = raw.KoreanExample
	}

	card.Word = strings.TrimSpace(card.Word)
	card.Meaning = strings.TrimSpace(card.Meaning)
	card.Example = strings.TrimSpace(card.Example)
	card.ExampleTranslation = strings.TrimSpace(card.ExampleTranslation)
	if card.Word == "" || card.Meaning == "" {
		return Card{}, fmt.Errorf("%w: word and meaning are required", ErrMalformedCard)
	}

	synonyms := make([]string, 0, maxSynonyms)
	for _, syn := range card.Synonyms {
		syn = strings.TrimSpace(syn)
		if syn == "" || len(synonyms) == maxSynonyms {
			continue
		}
		synonyms = append(synonyms, syn)
	}
	card.Synonyms = synonyms

	return card, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if _, after, ok := strings.Cut(s, "```json"); ok {
		s = after
	} else if _, after, ok := strings.Cut(s, "```"); ok {
		s = after
	} else {
		return s
	}
	if before, _, ok := strings.Cut(s, "```"); ok {
		s = before
	}
	return s
}

// SaveStatus selects the footer of a formatted card.
type SaveStatus int

const (
	// NotSaved marks a lookup that was never written to a vocabulary.
	NotSaved SaveStatus = iota
	Saved
	AlreadySaved
)

// StatusOf maps an Appender result to a SaveStatus.
func StatusOf(added bool) SaveStatus {
	if added {
		return Saved
	}
	return AlreadySaved
}

// FormatCard renders a card as a chat reply with a footer for status.
func FormatCard(c Card, status SaveStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 *%s*\n", c.Word)
	fmt.Fprintf(&b, "🇰🇷 *뜻:* %s\n", c.Meaning)
	if len(c.Synonyms) > 0 {
		fmt.Fprintf(&b, "🔄 *동의어:* %s\n", strings.Join(c.Synonyms, ", "))
	}
	if c.Example != "" {
		fmt.Fprintf(&b, "\n💬 *예문:*\n> %s\n", c.Example)
		if c.ExampleTranslation != "" {
			fmt.Fprintf(&b, "> _%s_\n", c.ExampleTranslation)
		}
	}
	b.WriteString("\n" + strings.Repeat("=", 30) + "\n")
	switch status {
	case Saved:
		b.WriteString("✅ *단어장에 저장 완료!*")
	case AlreadySaved:
		b.WriteString("ℹ️ *이미 저장된 단어입니다.*")
	default:
		b.WriteString("📖 *조회만 했습니다 (단어장 미저장).*")
	}
	return b.String()
}
