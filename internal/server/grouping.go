package server

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// groupKeyPrefixLen bounds the message prefix used for similarity. Long
// messages that diverge only in their tail (ids, durations) still group.
const groupKeyPrefixLen = 100

// groupedEntry is one similarity group: the first record seen plus the
// group's occurrence count and latest timestamp.
type groupedEntry struct {
	LogEntry
	OccurrenceCount int       `json:"occurrence_count"`
	LatestTimestamp time.Time `json:"latest_timestamp"`
}

func groupKey(e LogEntry) string {
	msg := e.Message
	if len(msg) > groupKeyPrefixLen {
		msg = msg[:groupKeyPrefixLen]
	}
	return fmt.Sprintf("%s-%s-%s", e.Level, e.Source, msg)
}

// groupSimilar collapses entries sharing level, source, and message prefix
// into single rows carrying an occurrence count and the group's latest
// timestamp, ordered by latest timestamp per the sort direction.
func groupSimilar(entries []LogEntry, sortDir string) []groupedEntry {
	byKey := make(map[string]*groupedEntry)
	var order []string

	for _, e := range entries {
		key := groupKey(e)
		if g, ok := byKey[key]; ok {
			g.OccurrenceCount++
			if e.Timestamp.After(g.LatestTimestamp) {
				g.LatestTimestamp = e.Timestamp
			}
			continue
		}
		byKey[key] = &groupedEntry{
			LogEntry:        e,
			OccurrenceCount: 1,
			LatestTimestamp: e.Timestamp,
		}
		order = append(order, key)
	}

	grouped := make([]groupedEntry, 0, len(order))
	for _, key := range order {
		grouped = append(grouped, *byKey[key])
	}

	asc := strings.EqualFold(sortDir, "asc")
	sort.SliceStable(grouped, func(i, j int) bool {
		if asc {
			return grouped[i].LatestTimestamp.Before(grouped[j].LatestTimestamp)
		}
		return grouped[i].LatestTimestamp.After(grouped[j].LatestTimestamp)
	})
	return grouped
}

// criticalPatterns flags messages worth treating as critical events.
var criticalPatterns = []string{
	"failed", "critical", "security", "breach",
	"unauthorized", "timeout", "connection", "payment",
}

// matchesCriticalPattern reports whether the message looks like a critical
// event, and whether it rates high severity.
func matchesCriticalPattern(message string) (matched bool, high bool) {
	lower := strings.ToLower(message)
	for _, p := range criticalPatterns {
		if strings.Contains(lower, p) {
			matched = true
			break
		}
	}
	high = strings.Contains(lower, "critical") || strings.Contains(lower, "security")
	return matched, high
}
