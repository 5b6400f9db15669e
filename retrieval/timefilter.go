package retrieval

import (
	"strings"
	"time"
)

// timePhrases maps time-scoped query phrases to cutoff durations.
var timePhrases = []struct {
	phrases []string
	cutoff  time.Duration
}{
	{[]string{"last 24 hours", "past 24 hours", "today"}, 24 * time.Hour},
	{[]string{"last week", "past week"}, 7 * 24 * time.Hour},
	{[]string{"last month", "past month"}, 30 * 24 * time.Hour},
}

// TimeCutoff returns the scrape-time cutoff implied by the raw query, or
// the zero time when the query has no time-scoped phrase.
func TimeCutoff(rawQuery string, now time.Time) time.Time {
	query := strings.ToLower(rawQuery)
	for _, entry := range timePhrases {
		for _, phrase := range entry.phrases {
			if strings.Contains(query, phrase) {
				return now.Add(-entry.cutoff)
			}
		}
	}
	return time.Time{}
}
