// Package chat provides a unified interface for the messaging channels that
// receive exams and bot replies (Telegram, Slack, WebSocket).
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// InboundMessage is a message received from any channel.
type InboundMessage struct {
	Channel     string
	UserID      string
	ExternalID  string
	Text        string
	ReplyToText string // text of the message being replied to (if any)
	Username    string
	FirstName   string
	LastName    string
	Language    string
}

// OutboundMessage is a message to send via any channel.
type OutboundMessage struct {
	Channel   string
	UserID    string
	Text      string
	ParseMode string // "Markdown", "HTML", or ""
}

// Document is a file posted to a channel with an optional caption.
type Document struct {
	Filename string
	Content  []byte
	Caption  string
}

// Channel is the interface each messaging platform must implement.
type Channel interface {
	SendMessage(ctx context.Context, userID string, msg OutboundMessage) error
	SendDocument(ctx context.Context, userID string, doc Document) error
	SendTyping(ctx context.Context, userID string) error
}

// Listener is implemented by channels that can receive messages.
type Listener interface {
	Start(ctx context.Context, handler func(InboundMessage)) error
	Stop() error
}

// RateLimitError reports that the destination asked the caller to slow down.
type RateLimitError struct {
	Channel    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited, retry after %s", e.Channel, e.RetryAfter)
}

// parseRetryAfter reads a Retry-After value in seconds, defaulting to one second.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}

// Gateway routes messages to/from registered channels.
type Gateway struct {
	channels map[string]Channel
	mu       sync.RWMutex
}

// NewGateway creates a new chat gateway.
func NewGateway() *Gateway {
	return &Gateway{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel to the gateway.
func (g *Gateway) Register(name string, ch Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[name] = ch
	slog.Info("chat channel registered", "channel", name)
}

// HasChannel returns true if the named channel is registered.
func (g *Gateway) HasChannel(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.channels[name]
	return ok
}

func (g *Gateway) lookup(name string) (Channel, error) {
	g.mu.RLock()
	ch, ok := g.channels[name]
	g.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown channel: %s", name)
	}
	return ch, nil
}

// Send dispatches a message to the appropriate channel.
func (g *Gateway) Send(ctx context.Context, msg OutboundMessage) error {
	ch, err := g.lookup(msg.Channel)
	if err != nil {
		return err
	}
	return ch.SendMessage(ctx, msg.UserID, msg)
}

// SendDocument posts doc to userID on the named channel.
func (g *Gateway) SendDocument(ctx context.Context, channel, userID string, doc Document) error {
	ch, err := g.lookup(channel)
	if err != nil {
		return err
	}
	return ch.SendDocument(ctx, userID, doc)
}

// SendTyping sends a typing indicator to the user on the given channel.
func (g *Gateway) SendTyping(ctx context.Context, channel, userID string) error {
	ch, err := g.lookup(channel)
	if err != nil {
		return err
	}
	return ch.SendTyping(ctx, userID)
}

// StartAll starts every registered channel that can receive messages.
func (g *Gateway) StartAll(ctx context.Context, handler func(InboundMessage)) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for name, ch := range g.channels {
		l, ok := ch.(Listener)
		if !ok {
			continue
		}
		slog.Info("starting channel", "channel", name)
		if err := l.Start(ctx, handler); err != nil {
			return fmt.Errorf("starting channel %s: %w", name, err)
		}
	}
	return nil
}

// StopAll stops every started listener.
func (g *Gateway) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for name, ch := range g.channels {
		if l, ok := ch.(Listener); ok {
			if err := l.Stop(); err != nil {
				slog.Warn("stopping channel failed", "channel", name, "error", err)
			}
		}
	}
}

// MockChannel is a test double for Channel. The first FailDocuments calls to
// SendDocument return DocumentErr.
type MockChannel struct {
	mu            sync.Mutex
	SentMessages  []OutboundMessage
	SentDocuments []Document
	Typing        int
	FailDocuments int
	DocumentErr   error
	Started       bool
	Stopped       bool
}

func (m *MockChannel) SendMessage(_ context.Context, _ string, msg OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, msg)
	return nil
}

func (m *MockChannel) SendDocument(_ context.Context, _ string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDocuments > 0 {
		m.FailDocuments--
		if m.DocumentErr != nil {
			return m.DocumentErr
		}
		return fmt.Errorf("mock document failure")
	}
	m.SentDocuments = append(m.SentDocuments, doc)
	return nil
}

func (m *MockChannel) SendTyping(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Typing++
	return nil
}

func (m *MockChannel) Start(_ context.Context, _ func(InboundMessage)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Started = true
	return nil
}

func (m *MockChannel) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped = true
	return nil
}
