package model

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Level is the six-valued log severity. CRITICAL is a superset-severity of
// ERROR used by the critical console and the escalation path.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarn     Level = "WARN"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
	LevelDebug    Level = "DEBUG"
	LevelSuccess  Level = "SUCCESS"
)

// Levels lists all severities in display order.
var Levels = []Level{LevelCritical, LevelError, LevelWarn, LevelInfo, LevelSuccess, LevelDebug}

// NormalizeLevel maps free-form severity text onto the Level enum.
// Unknown or empty input defaults to INFO.
func NormalizeLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO", "INFORMATION", "INF":
		return LevelInfo
	case "WARN", "WARNING", "WRN":
		return LevelWarn
	case "ERROR", "ERR":
		return LevelError
	case "CRITICAL", "CRIT", "FATAL":
		return LevelCritical
	case "DEBUG", "DBG", "TRACE":
		return LevelDebug
	case "SUCCESS", "OK":
		return LevelSuccess
	default:
		return LevelInfo
	}
}

// Source is the coarse origin tag of a record. It marks where the event was
// observed, not which team owns it.
type Source string

const (
	SourceFrontend Source = "frontend"
	SourceBackend  Source = "backend"
	SourceDev      Source = "dev"
	SourceBrowser  Source = "browser"
)

// NormalizeSource maps free-form origin text onto the Source enum,
// defaulting to backend.
func NormalizeSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "frontend":
		return SourceFrontend
	case "dev":
		return SourceDev
	case "browser":
		return SourceBrowser
	default:
		return SourceBackend
	}
}

// DetailsKind discriminates the Details union.
type DetailsKind int

const (
	DetailsAbsent DetailsKind = iota
	DetailsText
	DetailsStructured
)

// Details is the optional unstructured payload attached to a record.
// It is a tagged union: absent, plain text, or a structured key-value map.
// The three render paths (nothing, raw text, pretty-printed JSON) key off Kind.
type Details struct {
	Kind   DetailsKind
	Text   string
	Fields map[string]any
}

// TextDetails wraps plain text as Details.
func TextDetails(s string) Details {
	if s == "" {
		return Details{}
	}
	return Details{Kind: DetailsText, Text: s}
}

// StructuredDetails wraps a key-value map as Details.
func StructuredDetails(fields map[string]any) Details {
	if len(fields) == 0 {
		return Details{}
	}
	return Details{Kind: DetailsStructured, Fields: fields}
}

// UnmarshalJSON accepts a JSON string, object, or null.
func (d *Details) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*d = Details{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = TextDetails(s)
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		*d = StructuredDetails(fields)
		return nil
	}
	// Unrecognized shape (array, number). Keep the raw text so the record
	// still renders instead of aborting the batch.
	*d = TextDetails(trimmed)
	return nil
}

// MarshalJSON emits null, a string, or an object depending on Kind.
func (d Details) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DetailsText:
		return json.Marshal(d.Text)
	case DetailsStructured:
		return json.Marshal(d.Fields)
	default:
		return []byte("null"), nil
	}
}

// String renders details for display. Structured payloads are pretty-printed
// with stable key order.
func (d Details) String() string {
	switch d.Kind {
	case DetailsText:
		return d.Text
	case DetailsStructured:
		keys := make([]string, 0, len(d.Fields))
		for k := range d.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			v, _ := json.Marshal(d.Fields[k])
			b.WriteString(k)
			b.WriteString(": ")
			b.Write(v)
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return ""
	}
}

// LogRecord is the atomic unit ingested from the store. Level and Source are
// always present after decoding; everything else is best-effort.
type LogRecord struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Level           Level     `json:"level"`
	Source          Source    `json:"source"`
	Message         string    `json:"message"`
	Details         Details   `json:"details,omitempty"`
	SourceComponent string    `json:"source_component,omitempty"`
	Hash            string    `json:"hash,omitempty"`
	Occurrences     int       `json:"occurrences,omitempty"`
}

// Normalize applies the data-model defaults: INFO level, backend source,
// occurrence count of one.
func (r *LogRecord) Normalize() {
	r.Level = NormalizeLevel(string(r.Level))
	r.Source = NormalizeSource(string(r.Source))
	if r.Occurrences < 1 {
		r.Occurrences = 1
	}
}

// Escalatable reports whether the record may be forwarded to the issue
// tracker. Only ERROR and CRITICAL qualify.
func (r *LogRecord) Escalatable() bool {
	return r.Level == LevelError || r.Level == LevelCritical
}

// AggregatedLogEntry is the historical console's derived view over a group of
// semantically similar records. It is rebuilt wholesale on every fetch and
// discarded when the time window changes.
type AggregatedLogEntry struct {
	LogRecord
	FirstOccurrence time.Time `json:"first_occurrence"`
	LatestTimestamp time.Time `json:"latest_timestamp"`
}
