package console

import "time"

// TimeWindow selects the historical console's date range.
type TimeWindow string

const (
	WindowToday     TimeWindow = "today"
	WindowYesterday TimeWindow = "yesterday"
	WindowLast24h   TimeWindow = "24h"
	WindowWeek      TimeWindow = "week"
	WindowMonth     TimeWindow = "month"
)

// TimeWindows lists the selectable windows in UI order.
var TimeWindows = []TimeWindow{WindowToday, WindowYesterday, WindowLast24h, WindowWeek, WindowMonth}

// Resolve computes the half-open [start, end) range for the window at the
// given reference time. Today and yesterday are calendar days in the local
// zone of now; 24h/week/month are rolling windows ending at now.
func (w TimeWindow) Resolve(now time.Time) (start, end time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch w {
	case WindowToday:
		return midnight, midnight.AddDate(0, 0, 1)
	case WindowYesterday:
		return midnight.AddDate(0, 0, -1), midnight
	case WindowWeek:
		return now.AddDate(0, 0, -7), now
	case WindowMonth:
		return now.AddDate(0, -1, 0), now
	default:
		return now.Add(-24 * time.Hour), now
	}
}

// Label returns the window's display name.
func (w TimeWindow) Label() string {
	switch w {
	case WindowToday:
		return "Today"
	case WindowYesterday:
		return "Yesterday"
	case WindowWeek:
		return "Last 7 Days"
	case WindowMonth:
		return "Last 30 Days"
	default:
		return "Last 24 Hours"
	}
}
