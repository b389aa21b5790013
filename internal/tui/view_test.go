package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/orthodoxmetrics/logdeck/internal/console"
	"github.com/orthodoxmetrics/logdeck/internal/logstore"
	"github.com/orthodoxmetrics/logdeck/internal/model"
)

func TestClipLinesKeepsSelectedLineVisible(t *testing.T) {
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%02d", i)
	}

	cases := []struct {
		name         string
		selectedLine int
	}{
		{"top", 0},
		{"middle", 20},
		{"bottom", 39},
		{"past end clamps", 99},
	}
	for _, tc := range cases {
		out := clipLines(lines, 10, tc.selectedLine)
		want := tc.selectedLine
		if want >= len(lines) {
			want = len(lines) - 1
		}
		if !strings.Contains(out, fmt.Sprintf("line-%02d", want)) {
			t.Errorf("%s: selected line %d not visible in:\n%s", tc.name, want, out)
		}
		if got := len(strings.Split(out, "\n")); got != 10 {
			t.Errorf("%s: clipped to %d lines, want 10", tc.name, got)
		}
	}
}

func TestHistorySelectionVisibleBelowChart(t *testing.T) {
	now := time.Now()
	entries := make([]model.AggregatedLogEntry, 30)
	for i := range entries {
		entries[i] = model.AggregatedLogEntry{
			LogRecord: model.LogRecord{
				ID:          fmt.Sprintf("h%d", i),
				Level:       model.LevelError,
				Source:      model.SourceBackend,
				Message:     fmt.Sprintf("grouped failure %d", i),
				Occurrences: i + 1,
				Timestamp:   now,
			},
			LatestTimestamp: now,
		}
	}

	p := newTestPage(&fakeStore{aggregated: entries})
	loadConsole(t, p, console.HistoryID)
	for p.activeID() != console.HistoryID {
		keyPress(p, "tab")
	}
	p.cursor[console.HistoryID] = 25

	// The chart and window header sit above the list; the selection deep in
	// the list must still be on screen.
	out := p.renderHistory(100, 12)
	if !strings.Contains(out, "grouped failure 25") {
		t.Fatalf("selected entry scrolled off-screen:\n%s", out)
	}
}

func TestDegradedBannerDoesNotHideSelection(t *testing.T) {
	p := newTestPage(&fakeStore{err: logstore.ErrStoreUnavailable})
	loadConsole(t, p, console.RealTimeID)

	visible := p.visibleRecords(p.realtime)
	if len(visible) < 2 {
		t.Skip("seed dataset too small to scroll")
	}
	p.cursor[console.RealTimeID] = len(visible) - 1

	out := p.renderRecordConsole(p.realtime, 100, 3)
	last := visible[len(visible)-1]
	if !strings.Contains(out, last.Message) {
		t.Fatalf("selected entry hidden by banner offset:\n%s", out)
	}
}
