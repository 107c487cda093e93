package bot

import (
	"context"
	"log/slog"

	"github.com/p-n-ai/pai-vocab/internal/chat"
)

// Sender posts replies. Satisfied by chat.Gateway.
type Sender interface {
	Send(ctx context.Context, msg chat.OutboundMessage) error
	SendDocument(ctx context.Context, channel, userID string, doc chat.Document) error
	SendTyping(ctx context.Context, channel, userID string) error
}

// Handler adapts the engine to chat.Listener callbacks: it shows a typing
// indicator, handles the message and sends the reply text and documents back
// to the same chat.
func Handler(ctx context.Context, e *Engine, out Sender) func(chat.InboundMessage) {
	return func(msg chat.InboundMessage) {
		if err := out.SendTyping(ctx, msg.Channel, msg.UserID); err != nil {
			slog.Debug("typing indicator failed", "channel", msg.Channel, "error", err)
		}

		reply := e.Handle(ctx, msg)

		if reply.Text != "" {
			err := out.Send(ctx, chat.OutboundMessage{
				Channel:   msg.Channel,
				UserID:    msg.UserID,
				Text:      reply.Text,
				ParseMode: "Markdown",
			})
			if err != nil {
				slog.Error("sending reply failed", "channel", msg.Channel, "user_id", msg.UserID, "error", err)
			}
		}
		for _, doc := range reply.Documents {
			if err := out.SendDocument(ctx, msg.Channel, msg.UserID, doc); err != nil {
				slog.Error("sending document failed", "channel", msg.Channel, "filename", doc.Filename, "error", err)
			}
		}
	}
}
