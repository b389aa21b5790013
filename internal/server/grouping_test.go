package server

import (
	"strings"
	"testing"
	"time"
)

func entryAt(level, source, message string, ts time.Time) LogEntry {
	return LogEntry{ID: message, Level: level, Source: source, Message: message, Timestamp: ts}
}

func TestGroupSimilarCountsAndLatest(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []LogEntry{
		entryAt("ERROR", "backend", "Database connection failed", base),
		entryAt("ERROR", "backend", "Database connection failed", base.Add(2*time.Minute)),
		entryAt("ERROR", "backend", "Database connection failed", base.Add(time.Minute)),
		entryAt("INFO", "backend", "Server started", base.Add(3*time.Minute)),
	}

	grouped := groupSimilar(entries, "desc")
	if len(grouped) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(grouped))
	}

	// Descending by latest timestamp puts the INFO entry first.
	if grouped[0].Message != "Server started" || grouped[0].OccurrenceCount != 1 {
		t.Fatalf("unexpected first group: %+v", grouped[0])
	}
	g := grouped[1]
	if g.OccurrenceCount != 3 {
		t.Fatalf("expected 3 occurrences, got %d", g.OccurrenceCount)
	}
	if !g.LatestTimestamp.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("latest timestamp = %v, want %v", g.LatestTimestamp, base.Add(2*time.Minute))
	}
	// The group carries the first record seen.
	if !g.Timestamp.Equal(base) {
		t.Fatalf("group representative timestamp = %v, want %v", g.Timestamp, base)
	}
}

func TestGroupSimilarAscending(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []LogEntry{
		entryAt("INFO", "backend", "b", base.Add(time.Hour)),
		entryAt("INFO", "backend", "a", base),
	}
	grouped := groupSimilar(entries, "asc")
	if grouped[0].Message != "a" || grouped[1].Message != "b" {
		t.Fatalf("ascending order wrong: %q, %q", grouped[0].Message, grouped[1].Message)
	}
}

func TestGroupKeyTruncatesLongMessages(t *testing.T) {
	base := time.Now()
	prefix := strings.Repeat("x", groupKeyPrefixLen)
	entries := []LogEntry{
		entryAt("ERROR", "backend", prefix+" request id 1", base),
		entryAt("ERROR", "backend", prefix+" request id 2", base.Add(time.Second)),
	}
	grouped := groupSimilar(entries, "desc")
	if len(grouped) != 1 {
		t.Fatalf("long messages with shared prefix should group, got %d groups", len(grouped))
	}
	if grouped[0].OccurrenceCount != 2 {
		t.Fatalf("expected 2 occurrences, got %d", grouped[0].OccurrenceCount)
	}
}

func TestGroupKeySeparatesLevels(t *testing.T) {
	base := time.Now()
	entries := []LogEntry{
		entryAt("ERROR", "backend", "timeout", base),
		entryAt("WARN", "backend", "timeout", base),
		entryAt("ERROR", "frontend", "timeout", base),
	}
	if got := len(groupSimilar(entries, "desc")); got != 3 {
		t.Fatalf("level/source must partition groups, got %d", got)
	}
}

func TestMatchesCriticalPattern(t *testing.T) {
	cases := []struct {
		message string
		matched bool
		high    bool
	}{
		{"Payment processing timeout", true, false},
		{"CRITICAL: disk failure", true, true},
		{"Security breach attempt detected", true, true},
		{"Unauthorized access from 10.0.0.5", true, false},
		{"User logged in", false, false},
	}
	for _, tc := range cases {
		matched, high := matchesCriticalPattern(tc.message)
		if matched != tc.matched || high != tc.high {
			t.Errorf("%q: got (%v, %v), want (%v, %v)", tc.message, matched, high, tc.matched, tc.high)
		}
	}
}
