package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// detailsModal shows one record full-screen with scrollable details.
type detailsModal struct {
	vp      viewport.Model
	content string
}

func newDetailsModal(rec model.LogRecord) *detailsModal {
	return &detailsModal{content: formatRecordDetails(rec)}
}

func newDetailsModalAggregated(entry model.AggregatedLogEntry) *detailsModal {
	var b strings.Builder
	b.WriteString(formatRecordDetails(entry.LogRecord))
	fmt.Fprintf(&b, "\n%s %d\n", labelStyle().Render("Occurrences:"), entry.Occurrences)
	if !entry.FirstOccurrence.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle().Render("First seen:"), entry.FirstOccurrence.Format("2006-01-02 15:04:05"))
	}
	if !entry.LatestTimestamp.IsZero() {
		fmt.Fprintf(&b, "%s %s\n", labelStyle().Render("Last seen:"), entry.LatestTimestamp.Format("2006-01-02 15:04:05"))
	}
	return &detailsModal{content: b.String()}
}

func (m *detailsModal) ID() string { return "details" }

func (m *detailsModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "escape", "q", "enter":
			return true, nil
		}
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return false, cmd
}

func (m *detailsModal) View(width, height int) string {
	return renderModalFrame(&m.vp, "Log Details", m.content,
		"up/down: Scroll | PgUp/PgDn: Page | ESC: Close", width, height)
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
}

func formatRecordDetails(rec model.LogRecord) string {
	var b strings.Builder
	label := labelStyle()

	fmt.Fprintf(&b, "%s %s\n", label.Render("Timestamp:"), rec.Timestamp.Format("2006-01-02 15:04:05.000"))
	level := lipgloss.NewStyle().Foreground(levelColor(rec.Level)).Bold(true).Render(string(rec.Level))
	fmt.Fprintf(&b, "%s %s\n", label.Render("Level:"), level)
	fmt.Fprintf(&b, "%s %s\n", label.Render("Source:"), string(rec.Source))
	if rec.SourceComponent != "" {
		fmt.Fprintf(&b, "%s %s\n", label.Render("Component:"), rec.SourceComponent)
	}
	if rec.Hash != "" {
		fmt.Fprintf(&b, "%s %s\n", label.Render("Hash:"), rec.Hash)
	}
	if rec.Occurrences > 1 {
		fmt.Fprintf(&b, "%s %d\n", label.Render("Occurrences:"), rec.Occurrences)
	}

	fmt.Fprintf(&b, "\n%s\n%s\n", label.Render("Message:"), rec.Message)

	if details := rec.Details.String(); details != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", label.Render("Details:"), details)
	}
	return b.String()
}
