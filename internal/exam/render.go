package exam

import (
	"fmt"
	"strings"
	"time"
)

const (
	examTitle    = "영어 단어 시험지"
	blankShort   = "________________________"
	blankLong    = "________________________________________________"
	emptySection = "(출제할 단어가 없습니다)"
	divider      = "---"
)

var contexts = []string{
	"비즈니스 회의에서",
	"친구와의 일상 대화에서",
	"공식적인 이메일에서",
	"카페에서 주문할 때",
	"여행 중 호텔에서",
}

var letters = []string{"A", "B", "C", "D"}

// File is a rendered document ready to be written and delivered.
type File struct {
	Name    string
	Content []byte
	Caption string
}

// ExamFilename returns the exam document name for date.
func ExamFilename(date time.Time) string {
	return "exam_" + date.Format(time.DateOnly) + ".txt"
}

// AnswersFilename returns the answer document name for date.
func AnswersFilename(date time.Time) string {
	return "answers_" + date.Format(time.DateOnly) + ".txt"
}

// Files renders the exam followed by its answer key.
func (p *Paper) Files() []File {
	day := p.Date.Format(time.DateOnly)
	return []File{
		{
			Name:    ExamFilename(p.Date),
			Content: []byte(RenderExam(p)),
			Caption: fmt.Sprintf("📝 %s 영어 단어 시험지 (%d문제)", day, p.Selection.Questions()),
		},
		{
			Name:    AnswersFilename(p.Date),
			Content: []byte(RenderAnswers(p)),
			Caption: fmt.Sprintf("✅ %s 시험지 정답", day),
		},
	}
}

// RenderExam renders the question document. It never shows the meaning of a
// section 1 word, the English of a section 2 word or which section 5 option
// is correct.
func RenderExam(p *Paper) string {
	sel := p.Selection
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", examTitle)
	fmt.Fprintf(&b, "생성일: %s\n", koreanDate(p.Date))
	fmt.Fprintf(&b, "총 문항수: %d문제\n", sel.Questions())

	section(&b, "Section 1: 영→한 번역", len(sel.Section1), "다음 영어 단어/표현의 한글 뜻을 쓰시오.")
	for i, r := range sel.Section1 {
		fmt.Fprintf(&b, "%d. %s\n   답: %s\n\n", i+1, r.English, blankShort)
	}

	section(&b, "Section 2: 한→영 번역", len(sel.Section2), "다음 한글 뜻에 해당하는 영어 단어/표현을 쓰시오.")
	for i, r := range sel.Section2 {
		fmt.Fprintf(&b, "%d. %s\n   답: %s\n\n", i+1, r.Meaning, blankShort)
	}

	section(&b, "Section 3: 영어 작문", len(sel.Section3), "제시된 단어를 활용하여 영어 문장을 만드시오.")
	for i, r := range sel.Section3 {
		fmt.Fprintf(&b, "%d. 제시어: %s\n   문장: %s\n\n", i+1, r.English, blankLong)
	}

	section(&b, "Section 4: 문맥 번역", len(sel.Section4), "다음 상황에서 제시된 단어를 사용하여 적절한 영어 표현을 쓰시오.")
	for i, r := range sel.Section4 {
		fmt.Fprintf(&b, "%d. 상황: %s\n   단어: %s\n   표현: %s\n\n", i+1, contexts[i%len(contexts)], r.English, blankLong)
	}

	section(&b, "Section 5: 동의어 선택", len(p.Synonyms), "다음 단어와 뜻이 가장 가까운 것을 고르시오.")
	for i, q := range p.Synonyms {
		opts := make([]string, len(q.Options))
		for j, o := range q.Options {
			opts[j] = fmt.Sprintf("%s) %s", letters[j], o)
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   답: ____\n\n", i+1, q.Record.English, strings.Join(opts, "   "))
	}

	return b.String()
}

// RenderAnswers renders the answer key. Each entry reveals exactly what the
// matching exam question withheld.
func RenderAnswers(p *Paper) string {
	sel := p.Selection
	var b strings.Builder

	fmt.Fprintf(&b, "# %s - 정답\n", examTitle)
	fmt.Fprintf(&b, "생성일: %s\n", koreanDate(p.Date))

	section(&b, "Section 1: 영→한 번역 정답", len(sel.Section1), "")
	for i, r := range sel.Section1 {
		fmt.Fprintf(&b, "%d. %s → %s\n", i+1, r.English, r.Meaning)
	}

	section(&b, "Section 2: 한→영 번역 정답", len(sel.Section2), "")
	for i, r := range sel.Section2 {
		fmt.Fprintf(&b, "%d. %s → %s\n", i+1, r.Meaning, r.English)
	}

	section(&b, "Section 3: 영어 작문 예시 답안", len(sel.Section3), "")
	for i, r := range sel.Section3 {
		example := r.Usage
		if example == "" {
			example = fmt.Sprintf("(예시) This example shows how to use %s correctly.", r.English)
		}
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, r.English, r.Meaning, example)
	}

	section(&b, "Section 4: 문맥 번역 예시 답안", len(sel.Section4), "")
	for i, r := range sel.Section4 {
		fmt.Fprintf(&b, "%d. %s - %s (%s): 상황에 맞는 표현 사용\n", i+1, contexts[i%len(contexts)], r.English, r.Meaning)
	}

	section(&b, "Section 5: 동의어 정답", len(p.Synonyms), "")
	for i, q := range p.Synonyms {
		fmt.Fprintf(&b, "%d. %s → %s) %s\n", i+1, q.Record.English, letters[q.Answer], q.Correct())
	}

	return b.String()
}

func section(b *strings.Builder, title string, count int, instruction string) {
	fmt.Fprintf(b, "\n%s\n\n## %s (%d문제)\n", divider, title, count)
	if instruction != "" {
		fmt.Fprintf(b, "%s\n", instruction)
	}
	b.WriteString("\n")
	if count == 0 {
		fmt.Fprintf(b, "%s\n", emptySection)
	}
}

func koreanDate(t time.Time) string {
	return fmt.Sprintf("%d년 %02d월 %02d일", t.Year(), int(t.Month()), t.Day())
}
