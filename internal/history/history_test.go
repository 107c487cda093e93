package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/pai-vocab/internal/history"
	"github.com/p-n-ai/pai-vocab/internal/platform/database/dbtest"
)

var runDate = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func TestMemoryRecorder_RecordAndRecent(t *testing.T) {
	rec := history.NewMemoryRecorder()
	ctx := context.Background()

	for i, src := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		id, err := rec.Record(ctx, history.Run{Date: runDate.AddDate(0, 0, i), Source: src})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if id == "" {
			t.Fatal("Record() returned empty ID")
		}
	}

	runs, err := rec.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range runs {
		got = append(got, r.Source)
	}
	if diff := cmp.Diff([]string{"c.xlsx", "b.xlsx"}, got); diff != "" {
		t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryRecorder_RequiresDate(t *testing.T) {
	if _, err := history.NewMemoryRecorder().Record(context.Background(), history.Run{}); err == nil {
		t.Fatal("Record() should reject a run without a date")
	}
}

func TestMemoryRecorder_CopiesSelected(t *testing.T) {
	rec := history.NewMemoryRecorder()
	selected := []string{"secure", "thrive"}
	if _, err := rec.Record(context.Background(), history.Run{Date: runDate, Selected: selected}); err != nil {
		t.Fatal(err)
	}
	selected[0] = "mutated"

	runs, _ := rec.Recent(context.Background(), 0)
	if runs[0].Selected[0] != "secure" {
		t.Errorf("stored Selected = %v, caller mutation leaked", runs[0].Selected)
	}
}

func TestNewPostgresRecorder_NilPool(t *testing.T) {
	if _, err := history.NewPostgresRecorder(nil); err == nil {
		t.Fatal("NewPostgresRecorder(nil) should error")
	}
}

func TestPostgresRecorder_Integration(t *testing.T) {
	db := dbtest.Setup(t)
	dbtest.Truncate(t, db, "exam_runs")

	rec, err := history.NewPostgresRecorder(db.Pool)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	want := history.Run{
		Date:          runDate,
		Source:        "vocab.xlsx",
		Vocabulary:    120,
		Questions:     50,
		Selected:      []string{"secure", "thrive"},
		ExamFile:      "out/exam_2026-10-18.txt",
		AnswersFile:   "out/answers_2026-10-18.txt",
		Delivered:     false,
		DeliveryError: "channel_not_found",
		Elapsed:       1500 * time.Millisecond,
	}
	id, err := rec.Record(ctx, want)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	runs, err := rec.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Recent() = %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != id {
		t.Errorf("ID = %q, want %q", got.ID, id)
	}
	if diff := cmp.Diff(want.Selected, got.Selected); diff != "" {
		t.Errorf("Selected mismatch (-want +got):\n%s", diff)
	}
	if got.Source != want.Source || got.Questions != 50 || got.DeliveryError != "channel_not_found" || got.Elapsed != want.Elapsed {
		t.Errorf("run = %+v", got)
	}
	if !got.Date.Equal(runDate) {
		t.Errorf("Date = %v, want %v", got.Date, runDate)
	}
}
