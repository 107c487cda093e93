package bot_test

import (
	"context"
	"testing"

	"github.com/p-n-ai/pai-vocab/internal/bot"
	"github.com/p-n-ai/pai-vocab/internal/chat"
)

func TestHandler_SendsTextAndDocuments(t *testing.T) {
	mock := &chat.MockChannel{}
	gw := chat.NewGateway()
	gw.Register("telegram", mock)

	e := newEngine(&fakeExams{records: records(40)}, nil, nil)
	handle := bot.Handler(context.Background(), e, gw)

	handle(chat.InboundMessage{Channel: "telegram", UserID: "42", Text: "/exam"})

	if mock.Typing != 1 {
		t.Errorf("Typing = %d, want 1", mock.Typing)
	}
	if len(mock.SentMessages) != 1 || mock.SentMessages[0].UserID != "42" {
		t.Errorf("SentMessages = %+v", mock.SentMessages)
	}
	if len(mock.SentDocuments) != 2 {
		t.Errorf("SentDocuments = %d, want 2", len(mock.SentDocuments))
	}
}

func TestHandler_TextOnly(t *testing.T) {
	mock := &chat.MockChannel{}
	gw := chat.NewGateway()
	gw.Register("telegram", mock)

	handle := bot.Handler(context.Background(), newEngine(nil, nil, nil), gw)
	handle(chat.InboundMessage{Channel: "telegram", UserID: "42", Text: "/help"})

	if len(mock.SentMessages) != 1 || len(mock.SentDocuments) != 0 {
		t.Errorf("messages/documents = %d/%d, want 1/0", len(mock.SentMessages), len(mock.SentDocuments))
	}
}
