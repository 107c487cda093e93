package exam_test

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

// recordingSource always draws 0 and remembers each upper bound.
type recordingSource struct {
	bounds []int
}

func (s *recordingSource) IntN(n int) int {
	s.bounds = append(s.bounds, n)
	return 0
}

func makeRecords(n int) []vocab.Record {
	out := make([]vocab.Record, n)
	for i := range out {
		out[i] = vocab.Record{
			English: fmt.Sprintf("word%03d", i),
			Meaning: fmt.Sprintf("뜻%03d", i),
		}
	}
	return out
}

func keys(records []vocab.Record) map[string]int {
	m := make(map[string]int, len(records))
	for _, r := range records {
		m[r.English]++
	}
	return m
}

// sectionBody returns the text of "## Section n:" up to the next section.
func sectionBody(t *testing.T, doc string, n int) string {
	t.Helper()
	marker := fmt.Sprintf("## Section %d:", n)
	start := strings.Index(doc, marker)
	if start < 0 {
		t.Fatalf("document has no %q", marker)
	}
	rest := doc[start+len(marker):]
	if end := strings.Index(rest, "## Section "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

var numbered = regexp.MustCompile(`^(\d+)\. (.*)$`)

type item struct {
	num  int
	line string
	body string
}

// items splits a section body into numbered questions.
func items(t *testing.T, body string) []item {
	t.Helper()
	var out []item
	for _, line := range strings.Split(body, "\n") {
		if m := numbered.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			out = append(out, item{num: n, line: m[2], body: line})
			continue
		}
		if len(out) > 0 {
			out[len(out)-1].body += "\n" + line
		}
	}
	return out
}
