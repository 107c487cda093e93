package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/chat"
	"github.com/p-n-ai/pai-vocab/internal/delivery"
)

// Finder locates today's article. Satisfied by Extractor.
type Finder interface {
	Find(ctx context.Context, topics []string) (Article, error)
}

// Sender posts a chat message. Satisfied by chat.Gateway.
type Sender interface {
	Send(ctx context.Context, msg chat.OutboundMessage) error
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Finder    Finder
	Processor *Processor
	Sender    Sender
	// Channel is the gateway channel name; Destination the chat or channel id.
	Channel     string
	Destination string
}

// Options tune a Runner.
type Options struct {
	OutputDir  string
	ForceTopic string
}

// Result summarizes a run.
type Result struct {
	Topic          string
	Title          string
	Paths          []string
	MixedSent      bool
	CommentarySent bool
	Elapsed        time.Duration
}

// Runner runs the daily reading cycle: find, process, save, post.
type Runner struct {
	deps Deps
	opts Options
}

// New creates a Runner.
func New(deps Deps, opts Options) *Runner {
	return &Runner{deps: deps, opts: opts}
}

// Run builds and posts the materials for day. The mixed content and the
// commentary are posted independently; any failure is reported as a
// *delivery.DeliveryError after the files were saved.
func (r *Runner) Run(ctx context.Context, day time.Time) (Result, error) {
	start := time.Now()
	topics := TopicOrder(day, r.opts.ForceTopic)
	slog.Info("reading run started", "operation", "reading.run", "day", day.Format(time.DateOnly), "topic", topics[0])

	article, err := r.deps.Finder.Find(ctx, topics)
	if err != nil {
		return Result{}, fmt.Errorf("finding article: %w", err)
	}
	res := Result{Topic: article.Topic, Title: article.Title}

	materials, err := r.deps.Processor.Process(ctx, article)
	if err != nil {
		return res, fmt.Errorf("processing article: %w", err)
	}

	res.Paths, err = Save(r.opts.OutputDir, materials, time.Now())
	if err != nil {
		return res, fmt.Errorf("saving materials: %w", err)
	}

	var errs []error
	if err := r.sendAll(ctx, FormatMixed(materials.Mixed)); err != nil {
		errs = append(errs, &delivery.DeliveryError{Filename: "mixed content", Attempts: 1, Err: err})
	} else {
		res.MixedSent = true
	}
	if err := r.sendAll(ctx, []string{FormatCommentary(materials.Commentary)}); err != nil {
		errs = append(errs, &delivery.DeliveryError{Filename: "commentary", Attempts: 1, Err: err})
	} else {
		res.CommentarySent = true
	}

	res.Elapsed = time.Since(start)
	slog.Info("reading run finished",
		"operation", "reading.run",
		"topic", res.Topic,
		"title", res.Title,
		"mixed_sent", res.MixedSent,
		"commentary_sent", res.CommentarySent,
		"elapsed", res.Elapsed,
	)
	return res, errors.Join(errs...)
}

func (r *Runner) sendAll(ctx context.Context, texts []string) error {
	for _, text := range texts {
		err := r.deps.Sender.Send(ctx, chat.OutboundMessage{
			Channel:   r.deps.Channel,
			UserID:    r.deps.Destination,
			Text:      text,
			ParseMode: "Markdown",
		})
		if err != nil {
			return err
		}
	}
	return nil
}
