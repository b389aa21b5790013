package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/orthodoxmetrics/logdeck/internal/escalate"
	"github.com/orthodoxmetrics/logdeck/internal/model"
)

type escalateState int

const (
	escalateEditing escalateState = iota
	escalateSubmitting
	escalateDone
	escalateFailed
)

type escalationResultMsg struct {
	issue escalate.Issue
	err   error
}

// escalateModal reports the selected record to the issue tracker with an
// optional custom title and description.
type escalateModal struct {
	vp     viewport.Model
	client *escalate.Client
	record model.LogRecord

	title       textinput.Model
	description textinput.Model
	focusedDesc bool

	state  escalateState
	result escalate.Issue
	errMsg string
}

func newEscalateModal(client *escalate.Client, rec model.LogRecord) *escalateModal {
	title := textinput.New()
	title.Placeholder = fmt.Sprintf("[%s] %s", rec.Level, rec.Message)
	title.CharLimit = 120
	title.Focus()

	description := textinput.New()
	description.Placeholder = "Optional context for the issue"
	description.CharLimit = 500

	return &escalateModal{
		client:      client,
		record:      rec,
		title:       title,
		description: description,
	}
}

func (m *escalateModal) ID() string { return "escalate" }

func (m *escalateModal) submitCmd() tea.Cmd {
	client := m.client
	rec := m.record
	customTitle := m.title.Value()
	customDescription := m.description.Value()
	return func() tea.Msg {
		issue, err := client.CreateIssue(context.Background(), rec, customTitle, customDescription)
		return escalationResultMsg{issue: issue, err: err}
	}
}

func (m *escalateModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case escalationResultMsg:
		if msg.err != nil {
			m.state = escalateFailed
			// The tracker's message is shown verbatim so the user sees
			// exactly what the bridge rejected.
			m.errMsg = msg.err.Error()
		} else {
			m.state = escalateDone
			m.result = msg.issue
		}
		return false, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "escape":
			return true, nil
		case "tab", "shift+tab", "up", "down":
			if m.state == escalateEditing {
				m.focusedDesc = !m.focusedDesc
				if m.focusedDesc {
					m.title.Blur()
					m.description.Focus()
				} else {
					m.description.Blur()
					m.title.Focus()
				}
			}
			return false, nil
		case "enter":
			switch m.state {
			case escalateEditing:
				m.state = escalateSubmitting
				return false, m.submitCmd()
			case escalateDone, escalateFailed:
				return true, nil
			}
			return false, nil
		}

		if m.state == escalateEditing {
			var cmd tea.Cmd
			if m.focusedDesc {
				m.description, cmd = m.description.Update(msg)
			} else {
				m.title, cmd = m.title.Update(msg)
			}
			return false, cmd
		}
	}
	return false, nil
}

func (m *escalateModal) View(width, height int) string {
	label := labelStyle()
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", label.Render("Level:"),
		lipgloss.NewStyle().Foreground(levelColor(m.record.Level)).Bold(true).Render(string(m.record.Level)))
	fmt.Fprintf(&b, "%s %s\n", label.Render("Message:"), m.record.Message)
	if m.record.Hash != "" {
		fmt.Fprintf(&b, "%s %s\n", label.Render("Hash:"), m.record.Hash)
	}
	b.WriteString("\n")

	switch m.state {
	case escalateSubmitting:
		b.WriteString("Reporting to GitHub...\n")

	case escalateDone:
		b.WriteString(lipgloss.NewStyle().Foreground(ColorGreen).Bold(true).Render("Issue created") + "\n\n")
		fmt.Fprintf(&b, "%s #%d\n%s\n", label.Render("Issue:"), m.result.Number, m.result.URL)
		b.WriteString("\nPress enter to close.\n")

	case escalateFailed:
		b.WriteString(lipgloss.NewStyle().Foreground(ColorRed).Bold(true).Render("Escalation failed") + "\n\n")
		b.WriteString(m.errMsg + "\n")
		b.WriteString("\nPress enter to close.\n")

	default:
		fmt.Fprintf(&b, "%s\n%s\n\n", label.Render("Title (optional):"), m.title.View())
		fmt.Fprintf(&b, "%s\n%s\n", label.Render("Description (optional):"), m.description.View())
		b.WriteString("\ntab: switch field | enter: submit | esc: cancel\n")
	}

	return renderModalFrame(&m.vp, "Report to GitHub", b.String(),
		"ESC: Close", width, height)
}
