package reading

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// chunkRunes bounds one posted message.
const chunkRunes = 2500

var keycaps = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

// FormatMixed renders the mixed content as one or more chat messages of at
// most chunkRunes runes, split at paragraph breaks where possible.
func FormatMixed(m MixedContent) []string {
	var b strings.Builder
	fmt.Fprintf(&b, "📰 *오늘의 영어 기사* (%s)\n", cases.Title(language.English).String(m.Topic))
	fmt.Fprintf(&b, "*제목:* %s\n", m.Title)
	fmt.Fprintf(&b, "*출처:* %s | *날짜:* %s\n\n", m.Source, datePart(m.PublishedDate))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, p := range m.Paragraphs {
		if p.Type == Korean {
			fmt.Fprintf(&b, "*🇰🇷 문단 %d (한글)*\n", p.Number)
		} else {
			fmt.Fprintf(&b, "*📖 문단 %d (영어)*\n", p.Number)
		}
		b.WriteString(p.Content + "\n\n")
	}

	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString("💡 *학습 팁:* 영어 문단은 이해하며 읽고, 한글 문단은 영어로 번역해보세요!\n")
	fmt.Fprintf(&b, "📊 *구성:* 총 %d문단 중 영어 %d개, 한글 %d개",
		m.Structure.Total, m.Structure.English, m.Structure.Korean)

	return splitChunks(b.String(), chunkRunes)
}

// FormatCommentary renders up to ten expressions as a single message.
func FormatCommentary(c Commentary) string {
	var b strings.Builder
	b.WriteString("📚 *오늘의 영어 표현 해설*\n")
	fmt.Fprintf(&b, "*출처:* %s\n\n", c.SourceArticle.Title)
	b.WriteString("*🎯 원문에서 추출한 핵심 표현*\n\n")

	for i, e := range c.Expressions.Expressions {
		if i == len(keycaps) {
			break
		}
		fmt.Fprintf(&b, "*%s %s*\n", keycaps[i], e.Expression)
		fmt.Fprintf(&b, "🇰🇷 *뜻:* %s\n", e.KoreanMeaning)
		if len(e.Synonyms) > 0 {
			fmt.Fprintf(&b, "🔄 *동의어:* %s\n", strings.Join(e.Synonyms[:min(2, len(e.Synonyms))], ", "))
		}
		if e.Context != "" {
			fmt.Fprintf(&b, "📝 *예문:* %s\n", preview(e.Context, 60))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// splitChunks cuts text into pieces of at most limit runes, preferring the
// last blank line inside each window.
func splitChunks(text string, limit int) []string {
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		window := text[:byteOffset(text, limit)]
		cut := strings.LastIndex(window, "\n\n")
		if cut <= 0 {
			cut = len(window)
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return append(chunks, text)
}

// byteOffset returns the byte index of the n-th rune of s.
func byteOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return s[:byteOffset(s, n)] + "..."
}

func datePart(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
