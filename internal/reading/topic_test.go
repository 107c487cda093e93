package reading_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/pai-vocab/internal/reading"
)

func TestDailyTopic(t *testing.T) {
	tests := []struct {
		name  string
		day   time.Time
		force string
		want  string
	}{
		{"day 291", time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC), "", "medical"},
		{"day 292", time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), "", "politics"},
		{"day 293", time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC), "", "technology"},
		{"forced", time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC), " Technology ", "technology"},
		{"unknown force ignored", time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC), "sports", "medical"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reading.DailyTopic(tt.day, tt.force); got != tt.want {
				t.Errorf("DailyTopic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopicOrder(t *testing.T) {
	got := reading.TopicOrder(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), "")
	want := []string{"politics", "medical", "technology"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopicOrder() mismatch (-want +got):\n%s", diff)
	}
}
