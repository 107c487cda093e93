// Package pipeline runs one exam cycle: load the vocabulary, generate the
// paper, persist both documents, archive them and deliver them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/p-n-ai/pai-vocab/internal/archive"
	"github.com/p-n-ai/pai-vocab/internal/chat"
	"github.com/p-n-ai/pai-vocab/internal/delivery"
	"github.com/p-n-ai/pai-vocab/internal/exam"
	"github.com/p-n-ai/pai-vocab/internal/history"
	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

// Marker remembers which days were already delivered. Satisfied by cache.Cache.
type Marker interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Archiver copies documents to long-term storage. Satisfied by archive.S3Archiver.
type Archiver interface {
	Archive(ctx context.Context, date time.Time, objects []archive.Object) ([]string, error)
}

// Deliverer sends documents to the destination. Satisfied by delivery.Distributor.
type Deliverer interface {
	Deliver(ctx context.Context, docs []chat.Document) error
}

// Deps are the collaborators of a Runner. Archiver, Marker and History are optional.
type Deps struct {
	Source    vocab.Source
	Synonyms  exam.SynonymLookup
	Deliverer Deliverer
	Archiver  Archiver
	Marker    Marker
	History   history.Recorder
}

// Options tune generation.
type Options struct {
	OutputDir       string
	Seed            string
	Layout          exam.Layout
	Strict          bool
	PeerDistractors bool
	MarkerTTL       time.Duration
}

// Result summarizes a run.
type Result struct {
	Date      time.Time
	Paper     *exam.Paper
	Records   int
	Paths     []string
	Archived  []string
	Delivered bool
	Skipped   bool
	Elapsed   time.Duration
}

// GenerationError reports a failure before any document could be delivered.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Runner executes the pipeline.
type Runner struct {
	deps Deps
	opts Options
}

// New creates a Runner.
func New(deps Deps, opts Options) *Runner {
	if deps.History == nil {
		deps.History = history.NopRecorder{}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.MarkerTTL <= 0 {
		opts.MarkerTTL = 36 * time.Hour
	}
	return &Runner{deps: deps, opts: opts}
}

// MarkerKey is the cache key recording delivery for date.
func MarkerKey(date time.Time) string {
	return "vocab:delivered:" + date.Format(time.DateOnly)
}

// Generate loads the store and builds a paper for date. A zero layout uses the
// configured one.
func (r *Runner) Generate(ctx context.Context, date time.Time, layout exam.Layout) (*exam.Paper, int, error) {
	records := vocab.Load(ctx, r.deps.Source)

	if layout == (exam.Layout{}) {
		layout = r.opts.Layout
	}
	gen := &exam.Generator{
		Synonyms:        r.deps.Synonyms,
		Rand:            r.randomSource(date),
		Layout:          layout,
		Strict:          r.opts.Strict,
		PeerDistractors: r.opts.PeerDistractors,
	}

	start := time.Now()
	paper, err := gen.Generate(records, date)
	if err != nil {
		logStage("exam.generate", start, err)
		return nil, len(records), &GenerationError{Op: "exam.generate", Err: err}
	}
	logStage("exam.generate", start, nil, "questions", paper.Selection.Questions(), "records", len(records))
	return paper, len(records), nil
}

func (r *Runner) randomSource(date time.Time) exam.RandomSource {
	if r.opts.Seed == "" {
		return exam.SourceFromSeed("")
	}
	return exam.SourceFromSeed(r.opts.Seed + ":" + date.Format(time.DateOnly))
}

// Run executes a full cycle for date. When the day is already marked as
// delivered the run is skipped unless force is set. Documents are written to
// the output directory before delivery and are kept when delivery fails.
func (r *Runner) Run(ctx context.Context, date time.Time, force bool) (*Result, error) {
	runStart := time.Now()
	res := &Result{Date: date}

	if !force && r.alreadyDelivered(ctx, date) {
		slog.Info("exam already delivered today, skipping",
			"operation", "pipeline.run",
			"date", date.Format(time.DateOnly),
		)
		res.Skipped = true
		return res, nil
	}

	paper, records, err := r.Generate(ctx, date, exam.Layout{})
	res.Records = records
	if err != nil {
		return res, err
	}
	res.Paper = paper

	files := paper.Files()

	start := time.Now()
	paths, err := WriteFiles(r.opts.OutputDir, files)
	logStage("output.write", start, err, "dir", r.opts.OutputDir)
	if err != nil {
		return res, &GenerationError{Op: "output.write", Err: err}
	}
	res.Paths = paths

	res.Archived = r.archive(ctx, date, files)

	docs := make([]chat.Document, 0, len(files))
	for _, f := range files {
		docs = append(docs, chat.Document{Filename: f.Name, Content: f.Content, Caption: f.Caption})
	}

	start = time.Now()
	deliverErr := r.deps.Deliverer.Deliver(ctx, docs)
	logStage("deliver", start, deliverErr, "documents", len(docs))
	res.Delivered = deliverErr == nil

	if res.Delivered && r.deps.Marker != nil {
		if _, err := r.deps.Marker.Mark(ctx, MarkerKey(date), r.opts.MarkerTTL); err != nil {
			slog.Warn("failed to mark delivery", "operation", "cache.mark", "error", err)
		}
	}

	res.Elapsed = time.Since(runStart)
	r.record(ctx, res, deliverErr)

	if deliverErr != nil {
		var de *delivery.DeliveryError
		if !errors.As(deliverErr, &de) {
			deliverErr = &delivery.DeliveryError{Err: deliverErr}
		}
		return res, deliverErr
	}

	slog.Info("exam run complete",
		"operation", "pipeline.run",
		"date", date.Format(time.DateOnly),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func (r *Runner) alreadyDelivered(ctx context.Context, date time.Time) bool {
	if r.deps.Marker == nil {
		return false
	}
	seen, err := r.deps.Marker.Seen(ctx, MarkerKey(date))
	if err != nil {
		slog.Warn("delivery marker unavailable", "operation", "cache.seen", "error", err)
		return false
	}
	return seen
}

func (r *Runner) archive(ctx context.Context, date time.Time, files []exam.File) []string {
	if r.deps.Archiver == nil {
		return nil
	}
	objects := make([]archive.Object, 0, len(files))
	for _, f := range files {
		objects = append(objects, archive.Object{Name: f.Name, Content: f.Content})
	}

	start := time.Now()
	keys, err := r.deps.Archiver.Archive(ctx, date, objects)
	logStage("archive", start, err, "objects", len(keys))
	return keys
}

func (r *Runner) record(ctx context.Context, res *Result, deliverErr error) {
	run := history.Run{
		Date:       res.Date,
		Source:     r.deps.Source.Name(),
		Vocabulary: res.Records,
		Questions:  res.Paper.Selection.Questions(),
		Delivered:  res.Delivered,
		Elapsed:    res.Elapsed,
	}
	for _, rec := range res.Paper.Selection.AllSelected {
		run.Selected = append(run.Selected, rec.English)
	}
	if len(res.Paths) == 2 {
		run.ExamFile, run.AnswersFile = res.Paths[0], res.Paths[1]
	}
	if deliverErr != nil {
		run.DeliveryError = deliverErr.Error()
	}

	if _, err := r.deps.History.Record(ctx, run); err != nil {
		slog.Warn("failed to record exam run", "operation", "history.record", "error", err)
	}
}

// WriteFiles writes files into dir, creating it if needed, and returns their paths.
func WriteFiles(dir string, files []exam.File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.Name)
		if err := os.WriteFile(p, f.Content, 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func logStage(op string, start time.Time, err error, attrs ...any) {
	args := append([]any{"operation", op, "elapsed", time.Since(start)}, attrs...)
	if err != nil {
		slog.Error("stage failed", append(args, "error", err)...)
		return
	}
	slog.Info("stage complete", args...)
}
