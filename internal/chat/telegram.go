package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	telegramMaxMessageLen = 4096
	telegramMaxCaptionLen = 1024
	telegramAPI           = "https://api.telegram.org"
)

// TelegramChannel implements Channel and Listener for the Telegram Bot API.
type TelegramChannel struct {
	token    string
	baseURL  string
	client   *http.Client
	offset   int
	stop     chan struct{}
	stopOnce sync.Once
}

// NewTelegramChannel creates a Telegram channel adapter.
func NewTelegramChannel(token string) (*TelegramChannel, error) {
	return NewTelegramChannelWithBase(token, telegramAPI)
}

// NewTelegramChannelWithBase targets a self-hosted Bot API server.
func NewTelegramChannelWithBase(token, apiBase string) (*TelegramChannel, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required (VOCAB_DESTINATION_TOKEN)")
	}
	if apiBase == "" {
		apiBase = telegramAPI
	}
	return &TelegramChannel{
		token:   token,
		baseURL: strings.TrimRight(apiBase, "/") + "/bot" + token,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		stop: make(chan struct{}),
	}, nil
}

// tgResponse is the envelope of every Bot API reply.
type tgResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// checkTelegram turns a Bot API reply into an error, mapping 429 to RateLimitError.
func checkTelegram(resp *http.Response) (*tgResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading telegram response: %w", err)
	}

	var out tgResponse
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		if out.Parameters.RetryAfter > 0 {
			wait = time.Duration(out.Parameters.RetryAfter) * time.Second
		}
		return nil, &RateLimitError{Channel: "telegram", RetryAfter: wait}
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return nil, &tgAPIError{Status: resp.StatusCode, Description: out.Description}
	}
	return &out, nil
}

type tgAPIError struct {
	Status      int
	Description string
}

func (e *tgAPIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram API error %d: %s", e.Status, e.Description)
	}
	return fmt.Sprintf("telegram API error %d", e.Status)
}

func (t *TelegramChannel) postForm(ctx context.Context, method string, params url.Values) (*tgResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return checkTelegram(resp)
}

func (t *TelegramChannel) SendTyping(ctx context.Context, userID string) error {
	_, err := t.postForm(ctx, "sendChatAction", url.Values{
		"chat_id": {userID},
		"action":  {"typing"},
	})
	if err != nil {
		return fmt.Errorf("sending typing indicator: %w", err)
	}
	return nil
}

func (t *TelegramChannel) SendMessage(ctx context.Context, userID string, msg OutboundMessage) error {
	for _, part := range SplitMessage(msg.Text, telegramMaxMessageLen) {
		params := url.Values{
			"chat_id": {userID},
			"text":    {part},
		}
		if msg.ParseMode != "" {
			params.Set("parse_mode", msg.ParseMode)
		}

		_, err := t.postForm(ctx, "sendMessage", params)
		if err == nil {
			continue
		}
		// If Markdown parsing fails, retry without parse mode
		var apiErr *tgAPIError
		if msg.ParseMode != "" && errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			slog.Warn("Telegram markdown parse failed, retrying plain")
			params.Del("parse_mode")
			if _, retryErr := t.postForm(ctx, "sendMessage", params); retryErr != nil {
				return fmt.Errorf("sending Telegram message (retry): %w", retryErr)
			}
			continue
		}
		return fmt.Errorf("sending Telegram message: %w", err)
	}
	return nil
}

// SendDocument uploads doc as a multipart sendDocument call.
func (t *TelegramChannel) SendDocument(ctx context.Context, userID string, doc Document) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	_ = w.WriteField("chat_id", userID)
	if doc.Caption != "" {
		_ = w.WriteField("caption", truncate(doc.Caption, telegramMaxCaptionLen))
	}
	part, err := w.CreateFormFile("document", doc.Filename)
	if err != nil {
		return fmt.Errorf("creating document part: %w", err)
	}
	if _, err := part.Write(doc.Content); err != nil {
		return fmt.Errorf("writing document part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendDocument", &body)
	if err != nil {
		return fmt.Errorf("creating sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending Telegram document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := checkTelegram(resp); err != nil {
		return fmt.Errorf("sending Telegram document %s: %w", doc.Filename, err)
	}
	return nil
}

var telegramCommands = []struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}{
	{"start", "봇 소개"},
	{"help", "사용법 보기"},
	{"exam", "시험지 생성 (예: /exam 30 s1=15)"},
	{"word", "단어 조회 및 저장 (예: /word secure)"},
}

// syncCommands registers the bot command menu.
func (t *TelegramChannel) syncCommands() error {
	payload, err := json.Marshal(telegramCommands)
	if err != nil {
		return fmt.Errorf("encoding commands: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := t.postForm(ctx, "setMyCommands", url.Values{"commands": {string(payload)}}); err != nil {
		return fmt.Errorf("setting bot commands: %w", err)
	}
	return nil
}

// Start registers the command menu and begins long polling. Updates are
// handled one at a time, in order.
func (t *TelegramChannel) Start(ctx context.Context, handler func(InboundMessage)) error {
	if err := t.syncCommands(); err != nil {
		slog.Warn("Telegram command sync failed", "error", err)
	}
	go t.pollLoop(ctx, handler)
	return nil
}

func (t *TelegramChannel) Stop() error {
	t.stopOnce.Do(func() { close(t.stop) })
	return nil
}

func (t *TelegramChannel) pollLoop(ctx context.Context, handler func(InboundMessage)) {
	slog.Info("Telegram long-polling started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		default:
			updates, err := t.getUpdates(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Telegram getUpdates error", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}

			for _, u := range updates {
				t.offset = u.UpdateID + 1
				msg, ok := mapTelegramInbound(u)
				if !ok {
					continue
				}
				handler(msg)
			}
		}
	}
}

func (t *TelegramChannel) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	params := url.Values{
		"offset":  {strconv.Itoa(t.offset)},
		"timeout": {"30"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/getUpdates?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := checkTelegram(resp)
	if err != nil {
		return nil, err
	}

	var updates []tgUpdate
	if err := json.Unmarshal(out.Result, &updates); err != nil {
		return nil, fmt.Errorf("decoding updates: %w", err)
	}
	return updates, nil
}

// Telegram API types (minimal)
type tgUpdate struct {
	UpdateID int        `json:"update_id"`
	Message  *tgMessage `json:"message"`
}

type tgMessage struct {
	Text           string     `json:"text"`
	Caption        string     `json:"caption"`
	Chat           tgChat     `json:"chat"`
	From           tgUser     `json:"from"`
	ReplyToMessage *tgMessage `json:"reply_to_message,omitempty"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

// SplitMessage splits text into chunks that fit Telegram's max message length.
func SplitMessage(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Find last newline or space within limit
		cutAt := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > 0 {
			cutAt = idx + 1
		} else if idx := strings.LastIndex(text[:maxLen], " "); idx > 0 {
			cutAt = idx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func mapTelegramInbound(u tgUpdate) (InboundMessage, bool) {
	if u.Message == nil {
		return InboundMessage{}, false
	}

	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		text = strings.TrimSpace(u.Message.Caption)
	}
	if text == "" {
		return InboundMessage{}, false
	}

	msg := InboundMessage{
		Channel:    "telegram",
		UserID:     strconv.FormatInt(u.Message.Chat.ID, 10),
		ExternalID: strconv.FormatInt(u.Message.From.ID, 10),
		Text:       text,
		Username:   u.Message.From.Username,
		FirstName:  u.Message.From.FirstName,
		LastName:   u.Message.From.LastName,
		Language:   u.Message.From.LanguageCode,
	}
	if u.Message.ReplyToMessage != nil {
		if u.Message.ReplyToMessage.Text != "" {
			msg.ReplyToText = u.Message.ReplyToMessage.Text
		} else if u.Message.ReplyToMessage.Caption != "" {
			msg.ReplyToText = u.Message.ReplyToMessage.Caption
		}
	}

	return msg, true
}
