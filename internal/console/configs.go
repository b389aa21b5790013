package console

import (
	"context"
	"time"

	"github.com/orthodoxmetrics/logdeck/internal/logstore"
	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// Console IDs. These key seed datasets and per-console settings.
const (
	RealTimeID = "realtime"
	CriticalID = "critical"
	SystemID   = "system"
	HistoryID  = "history"
)

// Store is the narrow query contract the consoles need.
type Store interface {
	QueryLogs(ctx context.Context, q logstore.Query) ([]model.LogRecord, error)
	QueryAggregated(ctx context.Context, q logstore.Query) ([]model.AggregatedLogEntry, error)
	QueryCriticalEvents(ctx context.Context, limit int) ([]model.LogRecord, error)
}

func recordKey(r model.LogRecord) string { return r.ID }

// RecordLevel reads a LogRecord's severity; the classifier's levelOf hook.
func RecordLevel(r model.LogRecord) model.Level { return r.Level }

// AggregatedLevel reads an aggregated entry's severity.
func AggregatedLevel(e model.AggregatedLogEntry) model.Level { return e.Level }

// NewRealTimeEngine builds the real-time console: fast poll, INFO
// suppression when the info toggle is off, and a max-logs display window.
func NewRealTimeEngine(store Store, interval time.Duration, maxLogs int) *Engine[model.LogRecord] {
	if interval <= 0 {
		interval = model.DefaultRealTimeInterval
	}
	if maxLogs <= 0 {
		maxLogs = model.DefaultMaxLogs
	}
	return NewEngine(Config[model.LogRecord]{
		ID:       RealTimeID,
		Title:    "Real-Time",
		Interval: interval,
		Fetch: func(ctx context.Context) ([]model.LogRecord, error) {
			return store.QueryLogs(ctx, logstore.Query{Limit: model.DefaultQueryLimit})
		},
		Seed: func(now time.Time) []model.LogRecord { return SeedRecords(RealTimeID, now) },
		Key:  recordKey,
		Rules: Rules{
			SuppressHiddenInfo: true,
			MaxLogs:            maxLogs,
		},
	})
}

// NewCriticalEngine builds the critical console. Its rules ignore the global
// filter entirely: ERROR, WARN, and CRITICAL are always shown.
func NewCriticalEngine(store Store, interval time.Duration) *Engine[model.LogRecord] {
	if interval <= 0 {
		interval = model.DefaultCriticalInterval
	}
	return NewEngine(Config[model.LogRecord]{
		ID:       CriticalID,
		Title:    "Critical Events",
		Interval: interval,
		Fetch: func(ctx context.Context) ([]model.LogRecord, error) {
			return store.QueryCriticalEvents(ctx, 20)
		},
		Seed: func(now time.Time) []model.LogRecord { return SeedRecords(CriticalID, now) },
		Key:  recordKey,
		Rules: Rules{
			ForceLevels: []model.Level{model.LevelError, model.LevelWarn, model.LevelCritical},
		},
	})
}

// NewSystemEngine builds the system messages console, which never surfaces
// errors, warnings, criticals, or debug output.
func NewSystemEngine(store Store, interval time.Duration) *Engine[model.LogRecord] {
	if interval <= 0 {
		interval = model.DefaultSystemInterval
	}
	return NewEngine(Config[model.LogRecord]{
		ID:       SystemID,
		Title:    "System Messages",
		Interval: interval,
		Fetch: func(ctx context.Context) ([]model.LogRecord, error) {
			return store.QueryLogs(ctx, logstore.Query{Limit: model.DefaultQueryLimit})
		},
		Seed: func(now time.Time) []model.LogRecord { return SeedRecords(SystemID, now) },
		Key:  recordKey,
		Rules: Rules{
			ExcludeLevels: []model.Level{model.LevelError, model.LevelWarn, model.LevelCritical, model.LevelDebug},
		},
	})
}

// NewHistoryEngine builds the historical console. It never polls: window
// selection drives every fetch, and window returns the currently selected
// range at fetch time.
func NewHistoryEngine(store Store, window func() TimeWindow) *Engine[model.AggregatedLogEntry] {
	return NewEngine(Config[model.AggregatedLogEntry]{
		ID:    HistoryID,
		Title: "Historical",
		Fetch: func(ctx context.Context) ([]model.AggregatedLogEntry, error) {
			start, end := window().Resolve(time.Now())
			return store.QueryAggregated(ctx, logstore.Query{
				Limit:     model.MaxQueryLimit,
				StartDate: start,
				EndDate:   end,
			})
		},
		Seed: func(now time.Time) []model.AggregatedLogEntry { return SeedAggregated(now) },
		Key:  func(e model.AggregatedLogEntry) string { return e.ID },
	})
}
