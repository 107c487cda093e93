package chat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WebSocketChannel pushes messages and documents to a relay over a
// short-lived WebSocket connection per call. The relay acknowledges every
// envelope.
type WebSocketChannel struct {
	url     string
	token   string
	timeout time.Duration
}

// wsEnvelope is the frame sent to the relay. Content is base64 on the wire.
type wsEnvelope struct {
	Type      string `json:"type"`
	Channel   string `json:"channel"`
	Text      string `json:"text,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Content   []byte `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type wsAck struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// NewWebSocketChannel creates a relay adapter. token is sent as a bearer
// credential during the handshake.
func NewWebSocketChannel(url, token string) (*WebSocketChannel, error) {
	if url == "" {
		return nil, fmt.Errorf("websocket URL is required (VOCAB_DESTINATION_URL)")
	}
	return &WebSocketChannel{url: url, token: token, timeout: 30 * time.Second}, nil
}

func (w *WebSocketChannel) SendMessage(ctx context.Context, userID string, msg OutboundMessage) error {
	return w.send(ctx, wsEnvelope{Type: "message", Channel: userID, Text: msg.Text})
}

func (w *WebSocketChannel) SendDocument(ctx context.Context, userID string, doc Document) error {
	err := w.send(ctx, wsEnvelope{
		Type:     "document",
		Channel:  userID,
		Filename: doc.Filename,
		Caption:  doc.Caption,
		Content:  doc.Content,
	})
	if err != nil {
		return fmt.Errorf("sending document %s: %w", doc.Filename, err)
	}
	return nil
}

func (w *WebSocketChannel) SendTyping(ctx context.Context, userID string) error {
	return w.send(ctx, wsEnvelope{Type: "typing", Channel: userID})
}

func (w *WebSocketChannel) send(ctx context.Context, env wsEnvelope) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var header http.Header
	if w.token != "" {
		header = http.Header{"Authorization": {"Bearer " + w.token}}
	}
	conn, resp, err := websocket.Dial(ctx, w.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Channel: "websocket", RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		}
		return fmt.Errorf("dialing relay: %w", err)
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(1 << 20)

	env.Timestamp = time.Now().Unix()
	if err := wsjson.Write(ctx, conn, env); err != nil {
		return fmt.Errorf("writing %s envelope: %w", env.Type, err)
	}

	var ack wsAck
	if err := wsjson.Read(ctx, conn, &ack); err != nil {
		return fmt.Errorf("reading ack: %w", err)
	}
	if !ack.OK {
		if ack.RetryAfter > 0 {
			return &RateLimitError{Channel: "websocket", RetryAfter: time.Duration(ack.RetryAfter) * time.Second}
		}
		return fmt.Errorf("relay rejected %s: %s", env.Type, ack.Error)
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")
	return nil
}
