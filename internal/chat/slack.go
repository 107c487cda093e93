package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const slackAPI = "https://slack.com/api"

// SlackChannel implements Channel for the Slack Web API. The userID passed to
// each call is a Slack channel ID.
type SlackChannel struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewSlackChannel creates a Slack channel adapter for a bot token.
func NewSlackChannel(token string) (*SlackChannel, error) {
	return NewSlackChannelWithBase(token, slackAPI)
}

// NewSlackChannelWithBase targets an alternative Web API base URL.
func NewSlackChannelWithBase(token, apiBase string) (*SlackChannel, error) {
	if token == "" {
		return nil, fmt.Errorf("slack bot token is required (VOCAB_DESTINATION_TOKEN)")
	}
	if apiBase == "" {
		apiBase = slackAPI
	}
	return &SlackChannel{
		token:   token,
		baseURL: strings.TrimRight(apiBase, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type slackResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	UploadURL string `json:"upload_url"`
	FileID    string `json:"file_id"`
}

func (s *SlackChannel) do(req *http.Request, method string) (*slackResponse, error) {
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Channel: "slack", RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading slack %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack %s: HTTP %d", method, resp.StatusCode)
	}

	var out slackResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding slack %s response: %w", method, err)
	}
	if !out.OK {
		return nil, fmt.Errorf("slack %s: %s", method, out.Error)
	}
	return &out, nil
}

func (s *SlackChannel) postJSON(ctx context.Context, method string, payload any) (*slackResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding slack %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+method, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating slack %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return s.do(req, method)
}

func (s *SlackChannel) SendMessage(ctx context.Context, userID string, msg OutboundMessage) error {
	_, err := s.postJSON(ctx, "chat.postMessage", map[string]any{
		"channel": userID,
		"text":    msg.Text,
		"mrkdwn":  msg.ParseMode != "",
	})
	if err != nil {
		return fmt.Errorf("sending Slack message: %w", err)
	}
	return nil
}

// SendDocument uses the external upload flow: reserve an upload URL, post
// the bytes, then share the file into the channel.
func (s *SlackChannel) SendDocument(ctx context.Context, userID string, doc Document) error {
	params := url.Values{
		"filename": {doc.Filename},
		"length":   {strconv.Itoa(len(doc.Content))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files.getUploadURLExternal", strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("creating upload URL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	reserved, err := s.do(req, "files.getUploadURLExternal")
	if err != nil {
		return fmt.Errorf("sending Slack document %s: %w", doc.Filename, err)
	}

	if err := s.upload(ctx, reserved.UploadURL, doc); err != nil {
		return fmt.Errorf("sending Slack document %s: %w", doc.Filename, err)
	}

	_, err = s.postJSON(ctx, "files.completeUploadExternal", map[string]any{
		"files":           []map[string]string{{"id": reserved.FileID, "title": doc.Filename}},
		"channel_id":      userID,
		"initial_comment": doc.Caption,
	})
	if err != nil {
		return fmt.Errorf("sending Slack document %s: %w", doc.Filename, err)
	}
	return nil
}

func (s *SlackChannel) upload(ctx context.Context, uploadURL string, doc Document) error {
	if uploadURL == "" {
		return fmt.Errorf("slack returned no upload URL")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(doc.Content))
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Channel: "slack", RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// SendTyping is a no-op; Slack bots have no typing indicator.
func (s *SlackChannel) SendTyping(context.Context, string) error {
	return nil
}
