// Package delivery posts rendered documents to a destination one at a time,
// retrying transient failures with a constant backoff that honors the
// destination's Retry-After.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/p-n-ai/pai-vocab/internal/chat"
)

// Sender is satisfied by chat.Gateway.
type Sender interface {
	SendDocument(ctx context.Context, channel, userID string, doc chat.Document) error
}

// DeliveryError reports a document that could not be delivered.
type DeliveryError struct {
	Filename string
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering %s failed after %d attempt(s): %v", e.Filename, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Options tune pacing and retry.
type Options struct {
	Delay      time.Duration // pause between consecutive documents
	Attempts   int
	RetryDelay time.Duration
}

// Distributor sends documents to a single destination.
type Distributor struct {
	sender      Sender
	channel     string
	destination string
	opts        Options
	sleep       func(context.Context, time.Duration) error
}

// New creates a Distributor targeting destination on the named channel.
func New(sender Sender, channel, destination string, opts Options) *Distributor {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &Distributor{
		sender:      sender,
		channel:     channel,
		destination: destination,
		opts:        opts,
		sleep:       sleepContext,
	}
}

// WithSleep replaces the wait function. Used by tests.
func (d *Distributor) WithSleep(fn func(context.Context, time.Duration) error) *Distributor {
	d.sleep = fn
	return d
}

// Deliver sends docs in order and stops at the first document that exhausts
// its attempts.
func (d *Distributor) Deliver(ctx context.Context, docs []chat.Document) error {
	for i, doc := range docs {
		if i > 0 && d.opts.Delay > 0 {
			if err := d.sleep(ctx, d.opts.Delay); err != nil {
				return &DeliveryError{Filename: doc.Filename, Err: err}
			}
		}
		if err := d.deliverOne(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (d *Distributor) deliverOne(ctx context.Context, doc chat.Document) error {
	var (
		attempt int
		lastErr error
	)
	send := func() error {
		attempt++
		start := time.Now()
		err := d.sender.SendDocument(ctx, d.channel, d.destination, doc)
		if err != nil {
			lastErr = err
			return err
		}
		slog.Info("document delivered",
			"operation", "deliver",
			"channel", d.channel,
			"filename", doc.Filename,
			"attempt", attempt,
			"elapsed", time.Since(start),
		)
		return nil
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("document delivery failed, retrying",
			"operation", "deliver",
			"channel", d.channel,
			"filename", doc.Filename,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	policy := backoff.WithMaxRetries(
		backoff.WithContext(&retryAfterBackOff{
			BackOff: backoff.NewConstantBackOff(d.opts.RetryDelay),
			lastErr: &lastErr,
		}, ctx),
		uint64(d.opts.Attempts-1),
	)

	err := backoff.RetryNotifyWithTimer(send, policy, notify, &sleepTimer{ctx: ctx, sleep: d.sleep})
	if err == nil {
		return nil
	}
	if lastErr != nil && !errors.Is(err, lastErr) {
		err = errors.Join(lastErr, err)
	}
	return &DeliveryError{Filename: doc.Filename, Attempts: attempt, Err: err}
}

// retryAfterBackOff waits at least as long as the destination asked for in
// its last RateLimitError.
type retryAfterBackOff struct {
	backoff.BackOff
	lastErr *error
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	var rl *chat.RateLimitError
	if errors.As(*b.lastErr, &rl) && rl.RetryAfter > next {
		return rl.RetryAfter
	}
	return next
}

// sleepTimer adapts the distributor's sleep function to backoff.Timer. The
// channel only fires when the sleep completed; a cancelled sleep leaves the
// retry loop to observe ctx.Done.
type sleepTimer struct {
	ctx   context.Context
	sleep func(context.Context, time.Duration) error
	c     chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}
	if err := t.sleep(t.ctx, d); err == nil {
		t.c <- time.Now()
	}
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time { return t.c }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
