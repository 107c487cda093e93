package reading_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/chat"
	"github.com/p-n-ai/pai-vocab/internal/delivery"
	"github.com/p-n-ai/pai-vocab/internal/reading"
)

type fixedFinder struct {
	article reading.Article
	topics  []string
}

func (f *fixedFinder) Find(_ context.Context, topics []string) (reading.Article, error) {
	f.topics = topics
	return f.article, nil
}

// failingSender rejects messages whose text contains match.
type failingSender struct {
	match string
	sent  []chat.OutboundMessage
}

func (s *failingSender) Send(_ context.Context, msg chat.OutboundMessage) error {
	if strings.Contains(msg.Text, s.match) {
		return errors.New("channel_not_found")
	}
	s.sent = append(s.sent, msg)
	return nil
}

var readingDay = time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)

func TestRunner_Run(t *testing.T) {
	mock := &chat.MockChannel{}
	gw := chat.NewGateway()
	gw.Register("slack", mock)
	finder := &fixedFinder{article: fiveParagraphArticle()}
	dir := t.TempDir()

	r := reading.New(reading.Deps{
		Finder:      finder,
		Processor:   reading.NewProcessor(&promptCompleter{}),
		Sender:      gw,
		Channel:     "slack",
		Destination: "C123",
	}, reading.Options{OutputDir: dir})

	res, err := r.Run(context.Background(), readingDay)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if finder.topics[0] != "politics" {
		t.Errorf("topics = %v, want politics first", finder.topics)
	}
	if !res.MixedSent || !res.CommentarySent || res.Title != "Hospitals Brace for Winter" {
		t.Errorf("Result = %+v", res)
	}
	if len(res.Paths) != 2 {
		t.Fatalf("Paths = %v", res.Paths)
	}
	for _, p := range res.Paths {
		if filepath.Dir(p) != dir {
			t.Errorf("%s not written under the output dir", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Stat(%s) error = %v", p, err)
		}
	}
	if !strings.HasPrefix(filepath.Base(res.Paths[0]), "mixed_content_medical_") ||
		!strings.HasPrefix(filepath.Base(res.Paths[1]), "commentary_medical_") {
		t.Errorf("Paths = %v", res.Paths)
	}

	if len(mock.SentMessages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(mock.SentMessages))
	}
	for _, msg := range mock.SentMessages {
		if msg.UserID != "C123" || msg.ParseMode != "Markdown" {
			t.Errorf("message = %+v", msg)
		}
	}
	if !strings.Contains(mock.SentMessages[1].Text, "*1️⃣ brace for*") {
		t.Errorf("commentary = %q", mock.SentMessages[1].Text)
	}
}

func TestRunner_RunReportsSendFailure(t *testing.T) {
	sender := &failingSender{match: "오늘의 영어 기사"}
	dir := t.TempDir()

	r := reading.New(reading.Deps{
		Finder:      &fixedFinder{article: fiveParagraphArticle()},
		Processor:   reading.NewProcessor(&promptCompleter{}),
		Sender:      sender,
		Channel:     "slack",
		Destination: "C123",
	}, reading.Options{OutputDir: dir})

	res, err := r.Run(context.Background(), readingDay)
	var de *delivery.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("Run() error = %v, want a DeliveryError", err)
	}
	if de.Filename != "mixed content" {
		t.Errorf("DeliveryError.Filename = %q", de.Filename)
	}
	if res.MixedSent || !res.CommentarySent {
		t.Errorf("Result = %+v, want only the commentary sent", res)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(sender.sent))
	}
	for _, p := range res.Paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("materials should be saved before posting: %v", err)
		}
	}
}

func TestRunner_RunNoArticle(t *testing.T) {
	r := reading.New(reading.Deps{
		Finder:    reading.NewExtractor(fakeSearcher{}, &fakeFetcher{}),
		Processor: reading.NewProcessor(&promptCompleter{}),
		Sender:    &failingSender{},
	}, reading.Options{OutputDir: t.TempDir(), ForceTopic: "technology"})

	if _, err := r.Run(context.Background(), readingDay); !errors.Is(err, reading.ErrNoArticle) {
		t.Fatalf("Run() error = %v, want ErrNoArticle", err)
	}
}
