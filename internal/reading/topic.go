// Package reading builds the daily reading material: a New York Times article
// with its last paragraphs translated into Korean, plus expression notes and
// Korean-to-English interpretation exercises, posted to the destination.
package reading

import (
	"slices"
	"strings"
	"time"
)

// Topics rotate by day of year.
var Topics = []string{"medical", "politics", "technology"}

// DailyTopic returns the topic for day. force wins when it names a topic.
func DailyTopic(day time.Time, force string) string {
	force = strings.ToLower(strings.TrimSpace(force))
	if slices.Contains(Topics, force) {
		return force
	}
	return Topics[day.YearDay()%len(Topics)]
}

// TopicOrder lists the daily topic first, then the remaining topics in
// rotation order as fallbacks.
func TopicOrder(day time.Time, force string) []string {
	first := DailyTopic(day, force)
	order := []string{first}
	for _, t := range Topics {
		if t != first {
			order = append(order, t)
		}
	}
	return order
}
