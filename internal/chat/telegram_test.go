package chat_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/chat"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLen    int
		wantParts int
	}{
		{"short", "Hello", 4096, 1},
		{"exact", "Hello", 5, 1},
		{"split-needed", "Hello World, this is a test", 10, 4},
		{"empty", "", 4096, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := chat.SplitMessage(tt.text, tt.maxLen)
			if len(parts) != tt.wantParts {
				t.Errorf("SplitMessage() = %d parts, want %d", len(parts), tt.wantParts)
			}
		})
	}
}

func TestSplitMessage_PartsNotExceedMax(t *testing.T) {
	text := "This is a longer message that needs to be split into multiple parts for Telegram delivery."
	maxLen := 20
	parts := chat.SplitMessage(text, maxLen)

	for i, part := range parts {
		if len(part) > maxLen {
			t.Errorf("part[%d] len=%d exceeds maxLen=%d: %q", i, len(part), maxLen, part)
		}
	}
}

func TestNewTelegramChannel_NoToken(t *testing.T) {
	_, err := chat.NewTelegramChannel("")
	if err == nil {
		t.Error("NewTelegramChannel() should error with empty token")
	}
}

func TestNewTelegramChannel_ValidToken(t *testing.T) {
	ch, err := chat.NewTelegramChannel("test-token")
	if err != nil {
		t.Fatalf("NewTelegramChannel() error = %v", err)
	}
	if ch == nil {
		t.Error("NewTelegramChannel() returned nil")
	}
}

type tgRequest struct {
	path     string
	chatID   string
	caption  string
	filename string
	content  string
	text     string
}

func telegramServer(t *testing.T, status int, body string, header http.Header) (*httptest.Server, *[]tgRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []tgRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := tgRequest{path: r.URL.Path}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm() error = %v", err)
			}
			req.chatID = r.FormValue("chat_id")
			req.caption = r.FormValue("caption")
			if f, fh, err := r.FormFile("document"); err == nil {
				data, _ := io.ReadAll(f)
				req.filename = fh.Filename
				req.content = string(data)
			}
		} else {
			_ = r.ParseForm()
			req.chatID = r.FormValue("chat_id")
			req.text = r.FormValue("text")
		}
		mu.Lock()
		got = append(got, req)
		mu.Unlock()

		for k, v := range header {
			w.Header()[k] = v
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestTelegramChannel_SendDocument(t *testing.T) {
	srv, got := telegramServer(t, http.StatusOK, `{"ok":true,"result":{}}`, nil)

	ch, err := chat.NewTelegramChannelWithBase("tok", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	err = ch.SendDocument(context.Background(), "-100123", chat.Document{
		Filename: "exam_2026-10-18.txt",
		Content:  []byte("# 영어 단어 시험지"),
		Caption:  "📝 시험지",
	})
	if err != nil {
		t.Fatalf("SendDocument() error = %v", err)
	}

	if len(*got) != 1 {
		t.Fatalf("requests = %d, want 1", len(*got))
	}
	req := (*got)[0]
	if req.path != "/bottok/sendDocument" {
		t.Errorf("path = %q, want /bottok/sendDocument", req.path)
	}
	if req.chatID != "-100123" || req.caption != "📝 시험지" {
		t.Errorf("chat_id/caption = %q/%q", req.chatID, req.caption)
	}
	if req.filename != "exam_2026-10-18.txt" || req.content != "# 영어 단어 시험지" {
		t.Errorf("document = %q %q", req.filename, req.content)
	}
}

func TestTelegramChannel_SendDocument_RateLimited(t *testing.T) {
	srv, _ := telegramServer(t, http.StatusTooManyRequests,
		`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`, nil)

	ch, _ := chat.NewTelegramChannelWithBase("tok", srv.URL)
	err := ch.SendDocument(context.Background(), "1", chat.Document{Filename: "a.txt"})

	var rl *chat.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("SendDocument() error = %v, want RateLimitError", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", rl.RetryAfter)
	}
}

func TestTelegramChannel_SendDocument_APIError(t *testing.T) {
	srv, _ := telegramServer(t, http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, nil)

	ch, _ := chat.NewTelegramChannelWithBase("tok", srv.URL)
	err := ch.SendDocument(context.Background(), "1", chat.Document{Filename: "a.txt"})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("SendDocument() error = %v, want chat not found", err)
	}
	var rl *chat.RateLimitError
	if errors.As(err, &rl) {
		t.Error("400 must not be reported as a rate limit")
	}
}

func TestTelegramChannel_SendMessage(t *testing.T) {
	srv, got := telegramServer(t, http.StatusOK, `{"ok":true,"result":{}}`, nil)

	ch, _ := chat.NewTelegramChannelWithBase("tok", srv.URL)
	err := ch.SendMessage(context.Background(), "42", chat.OutboundMessage{Text: "안녕하세요"})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if len(*got) != 1 || (*got)[0].text != "안녕하세요" || (*got)[0].chatID != "42" {
		t.Errorf("requests = %+v", *got)
	}
}
