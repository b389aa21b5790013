package model

import "time"

// Shared defaults used by both the daemon and the TUI client.
const (
	DefaultRealTimeInterval = 2 * time.Second
	DefaultCriticalInterval = 30 * time.Second
	DefaultSystemInterval   = 30 * time.Second

	// Reactive filter controls wait this long for input quiescence before
	// re-fetching, to avoid request storms from rapid interaction.
	DefaultDebounce = 300 * time.Millisecond

	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000

	DefaultMaxLogs = 25
)

// MaxLogsChoices are the selectable real-time window sizes.
var MaxLogsChoices = []int{5, 10, 25, 50}
