package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/orthodoxmetrics/logdeck/internal/console"
	"github.com/orthodoxmetrics/logdeck/internal/model"
)

func (p *ConsolesPage) View() string {
	width, height := p.width, p.height
	if width <= 0 || height <= 0 {
		return "Loading..."
	}

	if modal := p.TopModal(); modal != nil {
		return modal.View(width, height)
	}

	header := p.renderTabs(width)
	status := p.renderStatusLine(width)

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(status)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	if p.activeID() == console.HistoryID {
		body = p.renderHistory(width, bodyHeight)
	} else {
		body = p.renderRecordConsole(p.recordEngine(p.activeID()), width, bodyHeight)
	}
	body = lipgloss.NewStyle().Width(width).Height(bodyHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (p *ConsolesPage) renderTabs(width int) string {
	tabs := make([]string, 0, len(p.order))
	for i, id := range p.order {
		label := p.consoleTitle(id)
		if dot := p.stateDot(id); dot != "" {
			label = dot + " " + label
		}
		if i == p.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return lipgloss.NewStyle().Width(width).Render(row)
}

func (p *ConsolesPage) consoleTitle(id string) string {
	switch id {
	case console.RealTimeID:
		return p.realtime.Title()
	case console.CriticalID:
		return p.critical.Title()
	case console.SystemID:
		return p.system.Title()
	default:
		return p.history.Title()
	}
}

// stateDot shows each console's health at a glance: green live, orange
// degraded, gray paused.
func (p *ConsolesPage) stateDot(id string) string {
	var state console.State
	var live bool
	if id == console.HistoryID {
		state, live = p.history.State(), true
	} else {
		e := p.recordEngine(id)
		state, live = e.State(), e.Live()
	}

	switch {
	case state == console.StateDegraded:
		return lipgloss.NewStyle().Foreground(ColorOrange).Render("●")
	case !live:
		return lipgloss.NewStyle().Foreground(ColorGray).Render("●")
	case state == console.StateDisplaying:
		return lipgloss.NewStyle().Foreground(ColorGreen).Render("●")
	default:
		return lipgloss.NewStyle().Foreground(ColorGray).Render("○")
	}
}

func (p *ConsolesPage) renderRecordConsole(e *console.Engine[model.LogRecord], width, height int) string {
	visible := p.visibleRecords(e)
	lines := make([]string, 0, len(visible)*2)

	if e.Degraded() {
		lines = append(lines, degradedStyle.Render("⚠ store unreachable, showing sample data"))
	}
	if len(visible) == 0 {
		lines = append(lines, helpStyle.Render("No logs match the current filters"))
		return strings.Join(lines, "\n")
	}

	selected := p.cursor[e.ID()]
	selectedLine := 0
	for i, rec := range visible {
		if i == selected {
			selectedLine = len(lines)
		}
		lines = append(lines, p.renderRecordCard(rec, i == selected && p.activeID() == e.ID(), width))
		if e.Expanded(rec.ID) {
			lines = append(lines, renderDetailsBlock(rec.Details, width))
		}
	}

	return clipLines(lines, height, selectedLine)
}

func (p *ConsolesPage) renderRecordCard(rec model.LogRecord, selected bool, width int) string {
	ts := metaStyle.Render(rec.Timestamp.Format("15:04:05"))
	parts := []string{levelBadge(rec.Level), ts, sourceTag(rec.Source)}
	if rec.SourceComponent != "" {
		parts = append(parts, metaStyle.Render(rec.SourceComponent))
	}
	parts = append(parts, messageStyle.Render(rec.Message))
	if rec.Occurrences > 1 {
		parts = append(parts, metaStyle.Render(fmt.Sprintf("×%d", rec.Occurrences)))
	}

	line := strings.Join(parts, " ")
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	return style.MaxWidth(width).Render(line)
}

func (p *ConsolesPage) renderHistory(width, height int) string {
	visible := p.visibleAggregated()
	lines := make([]string, 0, len(visible)+12)

	lines = append(lines, chartTitleStyle.Render("Window: "+p.window().Label()))
	if p.history.Degraded() {
		lines = append(lines, degradedStyle.Render("⚠ store unreachable, showing sample data"))
	}

	if chart := renderOccurrencesChart(visible, width); chart != "" {
		lines = append(lines, chart, "")
	}

	if len(visible) == 0 {
		lines = append(lines, helpStyle.Render("No logs in this window"))
		return strings.Join(lines, "\n")
	}

	selected := p.cursor[console.HistoryID]
	selectedLine := 0
	for i, entry := range visible {
		if i == selected {
			selectedLine = len(lines)
		}
		lines = append(lines, p.renderAggregatedCard(entry, i == selected, width))
		if p.history.Expanded(entry.ID) {
			lines = append(lines, renderDetailsBlock(entry.Details, width))
		}
	}

	return clipLines(lines, height, selectedLine)
}

func (p *ConsolesPage) renderAggregatedCard(entry model.AggregatedLogEntry, selected bool, width int) string {
	ts := metaStyle.Render(entry.LatestTimestamp.Format("Jan 02 15:04"))
	count := lipgloss.NewStyle().Foreground(ColorBlue).Bold(true).
		Render(fmt.Sprintf("×%d", entry.Occurrences))

	parts := []string{levelBadge(entry.Level), ts, sourceTag(entry.Source), messageStyle.Render(entry.Message), count}
	line := strings.Join(parts, " ")

	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	return style.MaxWidth(width).Render(line)
}

// renderDetailsBlock renders the inline expanded details under a card.
func renderDetailsBlock(details model.Details, width int) string {
	text := details.String()
	if text == "" {
		text = "(no details)"
	}
	return detailStyle.MaxWidth(width).Render(text)
}

// clipLines keeps the selected line on screen when the list overflows.
// selectedLine indexes into lines, so banners, headers, and expanded detail
// rows above the selection count toward the scroll offset.
func clipLines(lines []string, height, selectedLine int) string {
	if len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	if selectedLine < 0 {
		selectedLine = 0
	}
	if selectedLine >= len(lines) {
		selectedLine = len(lines) - 1
	}
	start := 0
	if selectedLine >= height {
		start = selectedLine - height + 1
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return strings.Join(lines[start:start+height], "\n")
}

func (p *ConsolesPage) renderStatusLine(width int) string {
	items := []string{
		"Filter: " + p.globalFilter.Label(),
	}
	if p.showInfoLogs {
		items = append(items, "info: on")
	} else {
		items = append(items, "info: off")
	}

	switch p.activeID() {
	case console.RealTimeID:
		items = append(items, fmt.Sprintf("max: %d", p.maxLogs))
		if p.stream != nil {
			items = append(items, "tail: ws")
		} else {
			items = append(items, "tail: poll")
		}
		if !p.realtime.Live() {
			items = append(items, "PAUSED")
		}
	case console.HistoryID:
		items = append(items, "window: "+p.window().Label())
	default:
		if e := p.recordEngine(p.activeID()); e != nil && !e.Live() {
			items = append(items, "PAUSED")
		}
	}

	items = append(items, "?: help")
	return statusStyle.MaxWidth(width).Render(strings.Join(items, " │ "))
}
