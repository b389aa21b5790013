package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

const chartHeight = 6

// renderOccurrencesChart draws one bar per aggregated group, most frequent
// first, so repeat offenders stand out before the list is read.
func renderOccurrencesChart(entries []model.AggregatedLogEntry, width int) string {
	if len(entries) == 0 {
		return ""
	}

	chartWidth := width - 4
	if chartWidth < 20 {
		chartWidth = 20
	}
	maxBars := chartWidth / 3
	if maxBars > len(entries) {
		maxBars = len(entries)
	}

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(2),
		barchart.WithNoAxis(),
	)

	for i := 0; i < maxBars; i++ {
		entry := entries[i]
		color := levelColor(entry.Level)
		style := lipgloss.NewStyle().Foreground(color).Background(color)
		bc.Push(barchart.BarData{
			Label: "",
			Values: []barchart.BarValue{
				{Name: string(entry.Level), Value: float64(entry.Occurrences), Style: style},
			},
		})
	}

	bc.Draw()

	header := chartTitleStyle.Render(fmt.Sprintf("Occurrences (%d groups, %d total)", len(entries), totalOccurrences(entries)))
	return strings.Join([]string{header, bc.View()}, "\n")
}

func totalOccurrences(entries []model.AggregatedLogEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Occurrences
	}
	return total
}
