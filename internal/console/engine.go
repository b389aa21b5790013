// Package console implements the shared log console engine: one fetch/
// classify/fallback cycle parameterized by per-console policy, replacing the
// four near-identical implementations the consoles grew independently.
package console

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the console lifecycle. There is no terminal error state: every
// failure resolves into StateDegraded with seed data shown.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateDisplaying
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateDisplaying:
		return "live"
	case StateDegraded:
		return "degraded"
	default:
		return "idle"
	}
}

// Config parameterizes an Engine with one console's policy.
type Config[T any] struct {
	ID    string
	Title string

	// Interval between polls while live. Zero means on-demand only (the
	// console re-fetches when its controls change, never on a timer).
	Interval time.Duration

	// Fetch performs one query against the store.
	Fetch func(ctx context.Context) ([]T, error)

	// Seed produces the degraded-mode dataset.
	Seed func(now time.Time) []T

	// Key returns a stable identity for dismissal and expansion tracking.
	Key func(T) string

	// Rules is this console's classification policy.
	Rules Rules
}

// Result carries one fetch cycle's outcome back to the engine. Gen is the
// request generation the fetch was issued under; stale results are dropped.
type Result[T any] struct {
	Gen     int
	Entries []T
	Err     error
}

// Engine owns one console's fetch cycle and view state. It is not
// goroutine-safe: all methods are called from the owning update loop, with
// fetches running out-of-band and re-entering through Apply.
type Engine[T any] struct {
	cfg      Config[T]
	state    State
	live     bool
	gen      int
	entries  []T
	expanded map[string]struct{}
}

// NewEngine creates an engine in the idle state with live mode on.
func NewEngine[T any](cfg Config[T]) *Engine[T] {
	return &Engine[T]{
		cfg:      cfg,
		live:     true,
		expanded: make(map[string]struct{}),
	}
}

func (e *Engine[T]) ID() string              { return e.cfg.ID }
func (e *Engine[T]) Title() string           { return e.cfg.Title }
func (e *Engine[T]) Interval() time.Duration { return e.cfg.Interval }
func (e *Engine[T]) Rules() Rules            { return e.cfg.Rules }
func (e *Engine[T]) State() State            { return e.state }
func (e *Engine[T]) Live() bool              { return e.live }

// SetLive toggles live mode. The scheduler stops issuing ticks while false.
func (e *Engine[T]) SetLive(live bool) { e.live = live }

// SetMaxLogs adjusts the post-filter truncation window.
func (e *Engine[T]) SetMaxLogs(n int) { e.cfg.Rules.MaxLogs = n }

// StartFetch begins a new request generation and returns the fetch to run
// out-of-band. Issuing a new generation invalidates any in-flight fetch, so
// rapid control changes cannot apply responses out of order.
func (e *Engine[T]) StartFetch() func(ctx context.Context) Result[T] {
	e.gen++
	e.state = StateFetching
	gen := e.gen
	fetch := e.cfg.Fetch
	return func(ctx context.Context) Result[T] {
		entries, err := fetch(ctx)
		return Result[T]{Gen: gen, Entries: entries, Err: err}
	}
}

// Apply folds a fetch result into the view state. Stale generations are
// ignored and reported false. Failures switch to degraded mode and install
// the seed dataset; an empty successful response installs an empty list.
func (e *Engine[T]) Apply(res Result[T]) bool {
	if res.Gen != e.gen {
		return false
	}
	if res.Err != nil {
		if !errors.Is(res.Err, context.Canceled) {
			log.Warn().Str("console", e.cfg.ID).Err(res.Err).Msg("store fetch failed, showing seed data")
		}
		e.state = StateDegraded
		e.entries = e.cfg.Seed(time.Now())
		return true
	}
	e.state = StateDisplaying
	e.entries = res.Entries
	return true
}

// Entries returns the current render list before classification. Callers
// apply Filter with the active global filter to produce the visible set.
func (e *Engine[T]) Entries() []T { return e.entries }

// Prepend inserts a pushed entry at the head of the list, trimming to limit.
// Degraded mode ignores pushes: mixing live records into seed data would make
// the fallback state ambiguous.
func (e *Engine[T]) Prepend(entry T, limit int) {
	if e.state == StateDegraded {
		return
	}
	e.entries = append([]T{entry}, e.entries...)
	if limit > 0 && len(e.entries) > limit {
		e.entries = e.entries[:limit]
	}
	if e.state == StateIdle {
		e.state = StateDisplaying
	}
}

// Dismiss removes the entry with the given key from the in-memory list only.
// Nothing is sent to the store, so the next fetch that still returns the
// entry resurrects it. The console is a viewer, not a record of
// acknowledgement.
func (e *Engine[T]) Dismiss(key string) {
	kept := e.entries[:0]
	for _, entry := range e.entries {
		if e.cfg.Key(entry) == key {
			delete(e.expanded, key)
			continue
		}
		kept = append(kept, entry)
	}
	e.entries = kept
}

// ToggleExpanded flips the detail panel for one entry.
func (e *Engine[T]) ToggleExpanded(key string) {
	if _, ok := e.expanded[key]; ok {
		delete(e.expanded, key)
		return
	}
	e.expanded[key] = struct{}{}
}

// Expanded reports whether the entry's detail panel is open.
func (e *Engine[T]) Expanded(key string) bool {
	_, ok := e.expanded[key]
	return ok
}

// Degraded reports whether seed data is currently shown.
func (e *Engine[T]) Degraded() bool { return e.state == StateDegraded }
