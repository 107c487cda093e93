// Package history records every generated exam run.
package history

import (
	"context"
	"crypto/rand"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Run is one pipeline execution.
type Run struct {
	ID            string
	Date          time.Time
	Source        string
	Vocabulary    int      // records loaded
	Questions     int      // questions on the paper
	Selected      []string // english terms in AllSelected order
	ExamFile      string
	AnswersFile   string
	Delivered     bool
	DeliveryError string
	Elapsed       time.Duration
	CreatedAt     time.Time
}

// Recorder persists runs.
type Recorder interface {
	Record(ctx context.Context, run Run) (string, error)
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// NopRecorder discards runs.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Run) (string, error) { return "", nil }

func (NopRecorder) Recent(context.Context, int) ([]Run, error) { return nil, nil }

// MemoryRecorder keeps runs in memory for tests and database-less setups.
type MemoryRecorder struct {
	mu   sync.Mutex
	runs []Run
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, run Run) (string, error) {
	if run.Date.IsZero() {
		return "", fmt.Errorf("run date is required")
	}
	run.ID = generateID()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.Selected = slices.Clone(run.Selected)

	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()
	return run.ID, nil
}

// Recent returns up to limit runs, newest first.
func (r *MemoryRecorder) Recent(_ context.Context, limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Run, 0, len(r.runs))
	for i := len(r.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.runs[i])
	}
	return out, nil
}

func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}
