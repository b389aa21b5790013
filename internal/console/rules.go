package console

import "github.com/orthodoxmetrics/logdeck/internal/model"

// LevelFilter is the global level selector shared by all consoles.
type LevelFilter int

const (
	FilterAll LevelFilter = iota
	FilterErrorsOnly
	FilterWarningsOnly
	FilterInfoOnly
	FilterSuccessOnly
	FilterDebugOnly
)

// LevelFilters lists the selectable global filters in cycle order.
var LevelFilters = []LevelFilter{FilterAll, FilterErrorsOnly, FilterWarningsOnly, FilterInfoOnly, FilterSuccessOnly, FilterDebugOnly}

// Label returns the filter's display name.
func (f LevelFilter) Label() string {
	switch f {
	case FilterErrorsOnly:
		return "Errors Only"
	case FilterWarningsOnly:
		return "Warnings Only"
	case FilterInfoOnly:
		return "Info Only"
	case FilterSuccessOnly:
		return "Success Only"
	case FilterDebugOnly:
		return "Debug Only"
	default:
		return "All Logs"
	}
}

func (f LevelFilter) matches(level model.Level) bool {
	switch f {
	case FilterErrorsOnly:
		return level == model.LevelError
	case FilterWarningsOnly:
		return level == model.LevelWarn
	case FilterInfoOnly:
		return level == model.LevelInfo
	case FilterSuccessOnly:
		return level == model.LevelSuccess
	case FilterDebugOnly:
		return level == model.LevelDebug
	default:
		return true
	}
}

// Rules are one console's classification policy on top of the global filter.
type Rules struct {
	// ForceLevels, when non-empty, overrides the global filter entirely:
	// the console shows exactly the union of these levels no matter what
	// the user selected. Critical events are always important to see.
	ForceLevels []model.Level

	// ExcludeLevels are never surfaced by this console under any global
	// filter value.
	ExcludeLevels []model.Level

	// SuppressHiddenInfo drops INFO records before any other rule when the
	// info toggle is off, unless the console is viewing "Info Only".
	SuppressHiddenInfo bool

	// MaxLogs truncates the filtered result to the most recent N entries.
	// Zero means no truncation. Applied after filtering, never before.
	MaxLogs int
}

// Filter applies the classification rules in their fixed evaluation order to
// entries of any shape, using levelOf to read each entry's severity. Entries
// are expected in most-recent-first order; MaxLogs keeps the head.
func Filter[T any](entries []T, levelOf func(T) model.Level, global LevelFilter, rules Rules, showInfoLogs bool) []T {
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		level := levelOf(e)

		if rules.SuppressHiddenInfo && !showInfoLogs && global != FilterInfoOnly && level == model.LevelInfo {
			continue
		}

		if len(rules.ForceLevels) > 0 {
			if containsLevel(rules.ForceLevels, level) {
				out = append(out, e)
			}
			continue
		}

		if containsLevel(rules.ExcludeLevels, level) {
			continue
		}

		if !global.matches(level) {
			continue
		}

		out = append(out, e)
	}

	if rules.MaxLogs > 0 && len(out) > rules.MaxLogs {
		out = out[:rules.MaxLogs]
	}
	return out
}

func containsLevel(levels []model.Level, level model.Level) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
