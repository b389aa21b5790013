package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// helpModal lists the key bindings, generated from the KeyMap so the help
// text cannot drift from the actual bindings.
type helpModal struct {
	vp      viewport.Model
	content string
}

func newHelpModal(keys KeyMap) *helpModal {
	var b strings.Builder

	section := func(title string, bindings ...key.Binding) {
		b.WriteString(title + "\n")
		for _, binding := range bindings {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}

	section("NAVIGATION", keys.NextConsole, keys.PrevConsole, keys.Up, keys.Down, keys.Enter)
	section("CONSOLES", keys.Pause, keys.Refresh, keys.CycleFilter, keys.ToggleInfo, keys.CycleMax, keys.CycleWindow)
	section("ENTRIES", keys.Expand, keys.Dismiss, keys.Escalate)
	section("GENERAL", keys.Help, keys.Quit, keys.ForceQuit)

	b.WriteString("The level filter applies to every console except Critical\n")
	b.WriteString("Events, which always shows errors, warnings, and criticals.\n")
	b.WriteString("Dismissing an entry hides it locally until the next refresh.\n")

	return &helpModal{content: b.String()}
}

func (m *helpModal) ID() string { return "help" }

func (m *helpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "escape", "q", "?":
			return true, nil
		}
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return false, cmd
}

func (m *helpModal) View(width, height int) string {
	return renderModalFrame(&m.vp, "Help", m.content,
		"up/down: Scroll | ESC: Close", width, height)
}
