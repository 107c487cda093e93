// Package bot answers chat commands: exam generation on demand and word
// lookups that grow the vocabulary.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/chat"
	"github.com/p-n-ai/pai-vocab/internal/exam"
	"github.com/p-n-ai/pai-vocab/internal/lexicon"
	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

const defaultExamTotal = 30

// ExamGenerator builds a paper from the current vocabulary. Satisfied by
// pipeline.Runner.
type ExamGenerator interface {
	Generate(ctx context.Context, date time.Time, layout exam.Layout) (*exam.Paper, int, error)
}

// Definer looks up words. Satisfied by lexicon.Definer.
type Definer interface {
	Define(ctx context.Context, term string) (lexicon.Card, error)
}

// Reply is the engine's answer to one inbound message.
type Reply struct {
	Text      string
	Documents []chat.Document
}

// EngineConfig holds the engine's dependencies. A nil Definer disables word
// lookups; a nil Store disables saving looked-up words.
type EngineConfig struct {
	Exams    ExamGenerator
	Definer  Definer
	Store    vocab.Appender
	Location *time.Location
	Now      func() time.Time
}

// Engine dispatches commands.
type Engine struct {
	exams   ExamGenerator
	definer Definer
	store   vocab.Appender
	loc     *time.Location
	now     func() time.Time
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) *Engine {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		exams:   cfg.Exams,
		definer: cfg.Definer,
		store:   cfg.Store,
		loc:     loc,
		now:     now,
	}
}

// Handle answers msg. Failures are reported in the reply text.
func (e *Engine) Handle(ctx context.Context, msg chat.InboundMessage) Reply {
	slog.Info("processing message",
		"channel", msg.Channel,
		"user_id", msg.UserID,
		"text_len", len(msg.Text),
	)

	text := strings.TrimSpace(msg.Text)
	if term, ok := strings.CutPrefix(text, "@"); ok {
		return e.handleWord(ctx, term)
	}

	cmd, args := splitCommand(text)
	switch cmd {
	case "/start":
		return Reply{Text: startText(msg)}
	case "/help", "도움말":
		return Reply{Text: helpText}
	case "/exam", "시험지":
		return e.handleExam(ctx, args)
	case "/word":
		term := strings.TrimSpace(args)
		if term == "" {
			term = strings.TrimSpace(msg.ReplyToText)
		}
		return e.handleWord(ctx, term)
	}

	if strings.HasPrefix(cmd, "/") {
		return Reply{Text: fmt.Sprintf("알 수 없는 명령어입니다: %s\n/help 로 사용법을 확인하세요.", cmd)}
	}
	return Reply{Text: "💡 `@단어` 로 단어를 조회하거나 `/exam` 으로 시험지를 만들 수 있습니다. /help 참고."}
}

// splitCommand separates the first token from the rest and drops a
// Telegram "@botname" suffix from slash commands.
func splitCommand(text string) (string, string) {
	cmd, args, _ := strings.Cut(text, " ")
	if strings.HasPrefix(cmd, "/") {
		cmd, _, _ = strings.Cut(cmd, "@")
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

func (e *Engine) handleExam(ctx context.Context, args string) Reply {
	if e.exams == nil {
		return Reply{Text: "❌ 시험지 생성이 설정되지 않았습니다."}
	}
	layout, err := ParseExamCommand(args)
	if err != nil {
		return Reply{Text: "❌ " + err.Error()}
	}

	now := e.now().In(e.loc)
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)

	paper, records, err := e.exams.Generate(ctx, date, layout)
	if err != nil {
		slog.Error("on-demand exam failed", "operation", "bot.exam", "error", err)
		if errors.Is(err, exam.ErrInsufficientVocabulary) {
			return Reply{Text: fmt.Sprintf("❌ 단어가 부족합니다. %d문제에는 최소 %d개 단어가 필요합니다.", layout.Sample, layout.Sample)}
		}
		return Reply{Text: "❌ 시험지 생성 중 오류가 발생했습니다: " + err.Error()}
	}

	var docs []chat.Document
	for _, f := range paper.Files() {
		docs = append(docs, chat.Document{Filename: f.Name, Content: f.Content, Caption: f.Caption})
	}

	sel := paper.Selection
	text := fmt.Sprintf(`📄 시험지 생성 완료!

📊 구성:
• Section 1: 영→한 번역 (%d문제)
• Section 2: 한→영 번역 (%d문제)
• Section 3: 영어 작문 (%d문제)
• Section 4: 문맥 번역 (%d문제)
• Section 5: 동의어 선택 (%d문제)

총 %d문제 (단어장 %d개 중 %d개 출제)`,
		len(sel.Section1), len(sel.Section2), len(sel.Section3), len(sel.Section4), len(sel.Section5),
		sel.Questions(), records, len(sel.AllSelected))

	return Reply{Text: text, Documents: docs}
}

// ParseExamCommand reads "[total] [s1=N] ... [s5=N]". The total sizes the
// sample (10 to 100, default 30) and is split evenly between sections 1 and 2
// unless overridden.
func ParseExamCommand(args string) (exam.Layout, error) {
	fields := strings.Fields(args)
	total := defaultExamTotal

	if len(fields) > 0 && !strings.Contains(fields[0], "=") {
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return exam.Layout{}, fmt.Errorf("올바른 숫자를 입력해주세요. 예: /exam 30")
		}
		total = n
		fields = fields[1:]
	}
	if total < exam.MinSample || total > exam.MaxSample {
		return exam.Layout{}, fmt.Errorf("문제 수는 %d~%d개 사이로 입력해주세요. 예: /exam 30", exam.MinSample, exam.MaxSample)
	}

	layout := exam.NewLayout(total)
	sections := map[string]*int{
		"s1": &layout.Section1,
		"s2": &layout.Section2,
		"s3": &layout.Section3,
		"s4": &layout.Section4,
		"s5": &layout.Section5,
	}
	for _, f := range fields {
		key, val, ok := strings.Cut(strings.ToLower(f), "=")
		target, known := sections[key]
		if !ok || !known {
			return exam.Layout{}, fmt.Errorf("알 수 없는 옵션입니다: %s (s1= ~ s5= 만 사용할 수 있습니다)", f)
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return exam.Layout{}, fmt.Errorf("올바른 숫자를 입력해주세요: %s", f)
		}
		*target = n
	}

	if err := layout.Validate(); err != nil {
		return exam.Layout{}, fmt.Errorf("잘못된 시험지 구성입니다: %w", err)
	}
	return layout, nil
}

func (e *Engine) handleWord(ctx context.Context, term string) Reply {
	term = strings.TrimSpace(term)
	if term == "" {
		return Reply{Text: "❌ 단어를 입력해주세요. 예: @hello"}
	}
	if e.definer == nil {
		return Reply{Text: "❌ 단어 조회가 설정되지 않았습니다."}
	}

	card, err := e.definer.Define(ctx, term)
	if err != nil {
		slog.Error("word lookup failed", "operation", "bot.word", "term", term, "error", err)
		return Reply{Text: fmt.Sprintf("❌ '%s'의 정보를 찾을 수 없습니다.", term)}
	}

	if e.store == nil {
		return Reply{Text: lexicon.FormatCard(card, lexicon.NotSaved)}
	}
	rec, ok := card.Record()
	if !ok {
		return Reply{Text: fmt.Sprintf("❌ '%s'의 정보를 찾을 수 없습니다.", term)}
	}
	saved, err := e.store.Append(ctx, rec)
	if err != nil {
		slog.Error("saving word failed", "operation", "bot.word", "term", rec.English, "error", err)
		return Reply{Text: lexicon.FormatCard(card, lexicon.NotSaved) + "\n⚠️ 단어장 저장 중 오류가 발생했습니다."}
	}
	return Reply{Text: lexicon.FormatCard(card, lexicon.StatusOf(saved))}
}

func startText(msg chat.InboundMessage) string {
	name := msg.FirstName
	if name == "" {
		name = msg.Username
	}
	if name == "" {
		name = "학습자"
	}
	return fmt.Sprintf(`안녕하세요 %s님!

매일 영어 단어 시험지를 만들어 드리는 봇입니다.

• @단어 로 뜻을 조회하고 단어장에 저장할 수 있어요.
• /exam 으로 지금 바로 시험지를 받을 수 있어요.

자세한 사용법은 /help 를 입력하세요.`, name)
}

const helpText = `📚 영어 단어 봇 사용법

명령어:
• @단어 또는 /word 단어 - 영어 단어 뜻 조회 및 저장
• /exam 또는 /exam 30 - 시험지 생성 (기본 30문제, 10~100)
• /exam 40 s1=20 s2=20 s3=5 s4=5 s5=10 - 섹션별 문제 수 지정
• /help - 이 메시지 표시

예시:
• @hello - hello 단어 조회
• @take care of - 구문 조회
• /exam 50 - 50문제 시험지 생성

시험지 구성:
✅ Section 1: 영→한 번역
✅ Section 2: 한→영 번역
✅ Section 3: 영어 작문
✅ Section 4: 문맥 번역
✅ Section 5: 동의어 선택
✅ 답지 자동 생성`
