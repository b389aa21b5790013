package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/orthodoxmetrics/logdeck/internal/console"
	"github.com/orthodoxmetrics/logdeck/internal/escalate"
	"github.com/orthodoxmetrics/logdeck/internal/logstore"
	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// Options configures the consoles page.
type Options struct {
	Store     console.Store
	Escalator *escalate.Client

	RealTimeInterval time.Duration
	CriticalInterval time.Duration
	SystemInterval   time.Duration
	MaxLogs          int

	// StreamURL enables the websocket live tail for the real-time console.
	// Empty disables it; polling covers the console either way.
	StreamURL string
}

// ConsolesPage is the top-level Bubble Tea model: the four log consoles
// behind one tabbed view. All consoles share the global level filter and the
// info toggle; everything else is per-console engine state.
type ConsolesPage struct {
	keys      KeyMap
	escalator *escalate.Client

	realtime *console.Engine[model.LogRecord]
	critical *console.Engine[model.LogRecord]
	system   *console.Engine[model.LogRecord]
	history  *console.Engine[model.AggregatedLogEntry]

	order  []string
	active int

	globalFilter console.LevelFilter
	showInfoLogs bool
	maxLogs      int
	windowIdx    int

	// cursor tracks the selected row per console, indexed into the
	// filtered view.
	cursor map[string]int

	// debounceSeq invalidates pending debounce timers when controls change
	// again before the quiet period elapses.
	debounceSeq int

	// cancels holds one cancel func per console so a control change can
	// abort that console's in-flight fetch without touching the others.
	cancels map[string]context.CancelFunc

	modals []Modal

	streamURL string
	stream    *logstore.Stream

	width  int
	height int
}

// NewConsolesPage wires the four console engines to the store.
func NewConsolesPage(opts Options) *ConsolesPage {
	maxLogs := opts.MaxLogs
	if maxLogs <= 0 {
		maxLogs = model.DefaultMaxLogs
	}

	p := &ConsolesPage{
		keys:         DefaultKeyMap(),
		escalator:    opts.Escalator,
		order:        []string{console.RealTimeID, console.CriticalID, console.SystemID, console.HistoryID},
		showInfoLogs: false,
		maxLogs:      maxLogs,
		cursor:       make(map[string]int),
		cancels:      make(map[string]context.CancelFunc),
		streamURL:    opts.StreamURL,
	}

	p.realtime = console.NewRealTimeEngine(opts.Store, opts.RealTimeInterval, maxLogs)
	p.critical = console.NewCriticalEngine(opts.Store, opts.CriticalInterval)
	p.system = console.NewSystemEngine(opts.Store, opts.SystemInterval)
	p.history = console.NewHistoryEngine(opts.Store, func() console.TimeWindow {
		return console.TimeWindows[p.windowIdx]
	})

	return p
}

var _ tea.Model = (*ConsolesPage)(nil)

func (p *ConsolesPage) activeID() string { return p.order[p.active] }

func (p *ConsolesPage) window() console.TimeWindow {
	return console.TimeWindows[p.windowIdx]
}

// recordEngine returns the engine for a record-backed console id, or nil for
// the history console.
func (p *ConsolesPage) recordEngine(id string) *console.Engine[model.LogRecord] {
	switch id {
	case console.RealTimeID:
		return p.realtime
	case console.CriticalID:
		return p.critical
	case console.SystemID:
		return p.system
	default:
		return nil
	}
}

// visibleRecords applies the console's rules and the global filter to the
// engine's current entries.
func (p *ConsolesPage) visibleRecords(e *console.Engine[model.LogRecord]) []model.LogRecord {
	return console.Filter(e.Entries(), console.RecordLevel, p.globalFilter, e.Rules(), p.showInfoLogs)
}

func (p *ConsolesPage) visibleAggregated() []model.AggregatedLogEntry {
	return console.Filter(p.history.Entries(), console.AggregatedLevel, p.globalFilter, p.history.Rules(), p.showInfoLogs)
}

// visibleCount returns the filtered row count for the active console.
func (p *ConsolesPage) visibleCount() int {
	if p.activeID() == console.HistoryID {
		return len(p.visibleAggregated())
	}
	return len(p.visibleRecords(p.recordEngine(p.activeID())))
}

// clampCursor keeps the selection inside the filtered view after data or
// filter changes.
func (p *ConsolesPage) clampCursor(id string) {
	n := p.visibleCount()
	if p.activeID() != id {
		return
	}
	if c := p.cursor[id]; c >= n {
		if n == 0 {
			p.cursor[id] = 0
		} else {
			p.cursor[id] = n - 1
		}
	}
}

// selectedRecord returns the record under the cursor on a record console.
func (p *ConsolesPage) selectedRecord() (model.LogRecord, bool) {
	e := p.recordEngine(p.activeID())
	if e == nil {
		if entry, ok := p.selectedAggregated(); ok {
			return entry.LogRecord, true
		}
		return model.LogRecord{}, false
	}
	visible := p.visibleRecords(e)
	c := p.cursor[p.activeID()]
	if c < 0 || c >= len(visible) {
		return model.LogRecord{}, false
	}
	return visible[c], true
}

func (p *ConsolesPage) selectedAggregated() (model.AggregatedLogEntry, bool) {
	visible := p.visibleAggregated()
	c := p.cursor[console.HistoryID]
	if c < 0 || c >= len(visible) {
		return model.AggregatedLogEntry{}, false
	}
	return visible[c], true
}

// PushModal adds a modal unless one with the same ID is already on the stack.
func (p *ConsolesPage) PushModal(m Modal) {
	for _, existing := range p.modals {
		if existing.ID() == m.ID() {
			return
		}
	}
	p.modals = append(p.modals, m)
}

// PopModal removes the topmost modal.
func (p *ConsolesPage) PopModal() {
	if len(p.modals) > 0 {
		p.modals = p.modals[:len(p.modals)-1]
	}
}

// TopModal returns the modal receiving input, or nil.
func (p *ConsolesPage) TopModal() Modal {
	if len(p.modals) == 0 {
		return nil
	}
	return p.modals[len(p.modals)-1]
}
