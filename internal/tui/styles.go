package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

var (
	ColorBlue   = lipgloss.Color("12")
	ColorRed    = lipgloss.Color("196")
	ColorOrange = lipgloss.Color("208")
	ColorGreen  = lipgloss.Color("42")
	ColorGray   = lipgloss.Color("244")
	ColorWhite  = lipgloss.Color("7")
	ColorPink   = lipgloss.Color("201")
)

var (
	tabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(lipgloss.Color("17")).
			Bold(true).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorGray).
			PaddingLeft(1)

	selectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(ColorBlue).
				PaddingLeft(1)

	messageStyle  = lipgloss.NewStyle().Foreground(ColorWhite)
	metaStyle     = lipgloss.NewStyle().Foreground(ColorGray)
	detailStyle   = lipgloss.NewStyle().Foreground(ColorGray).PaddingLeft(2)
	degradedStyle = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	helpStyle     = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	chartTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
)

// levelColor maps a severity to its display color.
func levelColor(level model.Level) lipgloss.Color {
	switch level {
	case model.LevelCritical:
		return ColorPink
	case model.LevelError:
		return ColorRed
	case model.LevelWarn:
		return ColorOrange
	case model.LevelSuccess:
		return ColorGreen
	case model.LevelDebug:
		return ColorGray
	default:
		return ColorBlue
	}
}

// levelBadge renders a fixed-width severity tag.
func levelBadge(level model.Level) string {
	return lipgloss.NewStyle().
		Foreground(levelColor(level)).
		Bold(true).
		Width(9).
		Render(string(level))
}

// sourceTag renders the record's origin.
func sourceTag(source model.Source) string {
	return metaStyle.Render("[" + string(source) + "]")
}
