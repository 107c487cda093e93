// Package scheduler fires a job once per calendar day at a wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Daily runs at hour:minute in Location every day.
type Daily struct {
	Hour     int
	Minute   int
	Location *time.Location

	schedule cron.Schedule
	now      func() time.Time
}

// NewDaily parses at as "HH:MM". A nil loc means UTC.
func NewDaily(at string, loc *time.Location) (*Daily, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule time %q: %w", at, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()))
	if err != nil {
		return nil, fmt.Errorf("building schedule for %q: %w", at, err)
	}
	if spec, ok := sched.(*cron.SpecSchedule); ok {
		spec.Location = loc
	}
	return &Daily{
		Hour:     t.Hour(),
		Minute:   t.Minute(),
		Location: loc,
		schedule: sched,
		now:      time.Now,
	}, nil
}

// Next returns the first firing time strictly after now.
func (d *Daily) Next(now time.Time) time.Time {
	return d.schedule.Next(now).In(d.Location)
}

// Run blocks until ctx is done, calling fn with the firing date at each
// scheduled time. Errors from fn are logged and do not stop the loop. A run
// still in progress when the next one is due is skipped.
func (d *Daily) Run(ctx context.Context, fn func(ctx context.Context, day time.Time) error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(d.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(d.schedule, cron.FuncJob(func() {
		day := d.now().In(d.Location)
		start := time.Now()
		if err := fn(ctx, day); err != nil {
			slog.Error("scheduled run failed",
				"operation", "schedule",
				"day", day.Format("2006-01-02"),
				"elapsed", time.Since(start),
				"error", err,
			)
		}
	}))

	slog.Info("next scheduled run", "operation", "schedule", "at", d.Next(d.now()).Format(time.RFC3339))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, append([]any{"operation", "schedule"}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append([]any{"operation", "schedule", "error", err}, keysAndValues...)...)
}
