package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/orthodoxmetrics/logdeck/internal/console"
	"github.com/orthodoxmetrics/logdeck/internal/logstore"
	"github.com/orthodoxmetrics/logdeck/internal/model"
)

type tickMsg struct{ console string }

type recordDataMsg struct {
	console string
	res     console.Result[model.LogRecord]
}

type aggregatedDataMsg struct {
	res console.Result[model.AggregatedLogEntry]
}

type debounceMsg struct{ seq int }

type streamOpenedMsg struct{ stream *logstore.Stream }
type streamRecordMsg model.LogRecord
type streamClosedMsg struct{}

func scheduleTick(id string, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return tickMsg{console: id}
	})
}

// fetchRecordsCmd starts a new fetch generation for a record console,
// cancelling that console's previous in-flight fetch.
func (p *ConsolesPage) fetchRecordsCmd(id string) tea.Cmd {
	e := p.recordEngine(id)
	if cancel, ok := p.cancels[id]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancels[id] = cancel
	run := e.StartFetch()
	return func() tea.Msg {
		return recordDataMsg{console: id, res: run(ctx)}
	}
}

func (p *ConsolesPage) fetchHistoryCmd() tea.Cmd {
	if cancel, ok := p.cancels[console.HistoryID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancels[console.HistoryID] = cancel
	run := p.history.StartFetch()
	return func() tea.Msg {
		return aggregatedDataMsg{res: run(ctx)}
	}
}

func dialStreamCmd(url string, limit int) tea.Cmd {
	return func() tea.Msg {
		s, err := logstore.DialStream(url, limit)
		if err != nil {
			return streamClosedMsg{}
		}
		return streamOpenedMsg{stream: s}
	}
}

func listenStreamCmd(s *logstore.Stream) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-s.Records()
		if !ok {
			return streamClosedMsg{}
		}
		return streamRecordMsg(rec)
	}
}

// Init fetches every console once and starts the poll chains.
func (p *ConsolesPage) Init() tea.Cmd {
	cmds := []tea.Cmd{
		p.fetchRecordsCmd(console.RealTimeID),
		p.fetchRecordsCmd(console.CriticalID),
		p.fetchRecordsCmd(console.SystemID),
		p.fetchHistoryCmd(),
		scheduleTick(console.RealTimeID, p.realtime.Interval()),
		scheduleTick(console.CriticalID, p.critical.Interval()),
		scheduleTick(console.SystemID, p.system.Interval()),
	}
	if p.streamURL != "" {
		cmds = append(cmds, dialStreamCmd(p.streamURL, model.DefaultQueryLimit))
	}
	return tea.Batch(cmds...)
}

func (p *ConsolesPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		return p, p.handleKey(msg)

	case tickMsg:
		e := p.recordEngine(msg.console)
		if e == nil {
			return p, nil
		}
		// The tick chain stays alive while paused so resume needs no
		// rescheduling; paused ticks just skip the fetch.
		cmds := []tea.Cmd{scheduleTick(msg.console, e.Interval())}
		if e.Live() {
			cmds = append(cmds, p.fetchRecordsCmd(msg.console))
		}
		return p, tea.Batch(cmds...)

	case recordDataMsg:
		e := p.recordEngine(msg.console)
		if e != nil && e.Apply(msg.res) {
			p.clampCursor(msg.console)
		}
		return p, nil

	case aggregatedDataMsg:
		if p.history.Apply(msg.res) {
			p.clampCursor(console.HistoryID)
		}
		return p, nil

	case debounceMsg:
		if msg.seq != p.debounceSeq {
			return p, nil
		}
		return p, p.fetchHistoryCmd()

	case streamOpenedMsg:
		p.stream = msg.stream
		return p, listenStreamCmd(p.stream)

	case streamRecordMsg:
		if p.stream == nil {
			return p, nil
		}
		if p.realtime.Live() {
			p.realtime.Prepend(model.LogRecord(msg), model.DefaultQueryLimit)
			p.clampCursor(console.RealTimeID)
		}
		return p, listenStreamCmd(p.stream)

	case streamClosedMsg:
		p.stream = nil
		return p, nil
	}

	// Unhandled messages may belong to the top modal (e.g. its async
	// results).
	if modal := p.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			p.PopModal()
		}
		return p, cmd
	}
	return p, nil
}

func (p *ConsolesPage) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, p.keys.ForceQuit) {
		return tea.Quit
	}

	if modal := p.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			p.PopModal()
		}
		return cmd
	}

	switch {
	case key.Matches(msg, p.keys.Quit):
		return tea.Quit

	case key.Matches(msg, p.keys.Help):
		p.PushModal(newHelpModal(p.keys))
		return nil

	case key.Matches(msg, p.keys.NextConsole):
		p.active = (p.active + 1) % len(p.order)
		return p.onConsoleEntered()

	case key.Matches(msg, p.keys.PrevConsole):
		p.active = (p.active + len(p.order) - 1) % len(p.order)
		return p.onConsoleEntered()

	case key.Matches(msg, p.keys.Up):
		if c := p.cursor[p.activeID()]; c > 0 {
			p.cursor[p.activeID()] = c - 1
		}
		return nil

	case key.Matches(msg, p.keys.Down):
		if c := p.cursor[p.activeID()]; c < p.visibleCount()-1 {
			p.cursor[p.activeID()] = c + 1
		}
		return nil

	case key.Matches(msg, p.keys.Pause):
		if e := p.recordEngine(p.activeID()); e != nil {
			e.SetLive(!e.Live())
			if e.Live() {
				return p.fetchRecordsCmd(p.activeID())
			}
		}
		return nil

	case key.Matches(msg, p.keys.CycleFilter):
		p.globalFilter = console.LevelFilters[(indexOfFilter(p.globalFilter)+1)%len(console.LevelFilters)]
		p.clampCursor(p.activeID())
		return nil

	case key.Matches(msg, p.keys.ToggleInfo):
		p.showInfoLogs = !p.showInfoLogs
		p.clampCursor(p.activeID())
		return nil

	case key.Matches(msg, p.keys.CycleMax):
		p.maxLogs = nextMaxLogs(p.maxLogs)
		p.realtime.SetMaxLogs(p.maxLogs)
		p.clampCursor(console.RealTimeID)
		return nil

	case key.Matches(msg, p.keys.CycleWindow):
		if p.activeID() != console.HistoryID {
			return nil
		}
		p.windowIdx = (p.windowIdx + 1) % len(console.TimeWindows)
		p.debounceSeq++
		seq := p.debounceSeq
		return tea.Tick(model.DefaultDebounce, func(time.Time) tea.Msg {
			return debounceMsg{seq: seq}
		})

	case key.Matches(msg, p.keys.Refresh):
		if p.activeID() == console.HistoryID {
			return p.fetchHistoryCmd()
		}
		return p.fetchRecordsCmd(p.activeID())

	case key.Matches(msg, p.keys.Enter):
		return p.openDetails()

	case key.Matches(msg, p.keys.Expand):
		p.toggleExpanded()
		return nil

	case key.Matches(msg, p.keys.Dismiss):
		p.dismissSelected()
		return nil

	case key.Matches(msg, p.keys.Escalate):
		if rec, ok := p.selectedRecord(); ok && rec.Escalatable() && p.escalator != nil {
			p.PushModal(newEscalateModal(p.escalator, rec))
		}
		return nil
	}

	return nil
}

// onConsoleEntered triggers an on-demand fetch when the user lands on a
// console that has never loaded.
func (p *ConsolesPage) onConsoleEntered() tea.Cmd {
	if p.activeID() == console.HistoryID && p.history.State() == console.StateIdle {
		return p.fetchHistoryCmd()
	}
	return nil
}

func (p *ConsolesPage) openDetails() tea.Cmd {
	if p.activeID() == console.HistoryID {
		if entry, ok := p.selectedAggregated(); ok {
			p.PushModal(newDetailsModalAggregated(entry))
		}
		return nil
	}
	if rec, ok := p.selectedRecord(); ok {
		p.PushModal(newDetailsModal(rec))
	}
	return nil
}

func (p *ConsolesPage) toggleExpanded() {
	if p.activeID() == console.HistoryID {
		if entry, ok := p.selectedAggregated(); ok {
			p.history.ToggleExpanded(entry.ID)
		}
		return
	}
	if rec, ok := p.selectedRecord(); ok {
		p.recordEngine(p.activeID()).ToggleExpanded(rec.ID)
	}
}

func (p *ConsolesPage) dismissSelected() {
	if p.activeID() == console.HistoryID {
		if entry, ok := p.selectedAggregated(); ok {
			p.history.Dismiss(entry.ID)
			p.clampCursor(console.HistoryID)
		}
		return
	}
	if rec, ok := p.selectedRecord(); ok {
		p.recordEngine(p.activeID()).Dismiss(rec.ID)
		p.clampCursor(p.activeID())
	}
}

func indexOfFilter(f console.LevelFilter) int {
	for i, lf := range console.LevelFilters {
		if lf == f {
			return i
		}
	}
	return 0
}

func nextMaxLogs(current int) int {
	for i, n := range model.MaxLogsChoices {
		if n == current {
			return model.MaxLogsChoices[(i+1)%len(model.MaxLogsChoices)]
		}
	}
	return model.MaxLogsChoices[0]
}
