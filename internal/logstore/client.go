// Package logstore is the HTTP client of the log store's query API.
//
// The client draws a hard line between an empty successful response (the
// store answered and there is nothing to show) and a failed one (transport
// error, non-2xx status, or an envelope missing the expected array). Callers
// rely on that distinction to decide between an empty state and degraded
// seed data, so failures are reported as ErrStoreUnavailable and never as an
// empty result.
package logstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// ErrStoreUnavailable wraps every transport, status, and envelope failure.
var ErrStoreUnavailable = errors.New("log store unavailable")

const requestTimeout = 10 * time.Second

// Client queries the log store over HTTP. The base URL is injected via
// configuration; the client never branches on deployment environment.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a store client for the given base URL,
// e.g. "http://localhost:3002".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: requestTimeout},
	}
}

// Query holds the supported query parameters of GET /api/logs/database.
type Query struct {
	Limit        int
	Sort         string // "asc" or "desc"; empty defaults to desc
	Level        model.Level
	Source       model.Source
	StartDate    time.Time
	EndDate      time.Time
	Search       string
	GroupSimilar bool
}

func (q Query) values() url.Values {
	v := url.Values{}
	limit := q.Limit
	if limit <= 0 {
		limit = model.DefaultQueryLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	sort := q.Sort
	if sort == "" {
		sort = "desc"
	}
	v.Set("sort", sort)
	if q.Level != "" {
		v.Set("level", string(q.Level))
	}
	if q.Source != "" {
		v.Set("source", string(q.Source))
	}
	if !q.StartDate.IsZero() {
		v.Set("start_date", q.StartDate.Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		v.Set("end_date", q.EndDate.Format(time.RFC3339))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.GroupSimilar {
		v.Set("group_similar", "true")
	}
	return v
}

// wireRecord decodes a single store record leniently. Timestamps and IDs
// arrive in whatever shape the store's writers produced; a bad field must
// not abort the batch.
type wireRecord struct {
	ID              json.RawMessage `json:"id"`
	Timestamp       string          `json:"timestamp"`
	Level           string          `json:"level"`
	Source          string          `json:"source"`
	Message         string          `json:"message"`
	Details         model.Details   `json:"details"`
	Meta            model.Details   `json:"meta"`
	SourceComponent string          `json:"source_component"`
	Service         string          `json:"service"`
	Hash            string          `json:"hash"`
	Occurrences     int             `json:"occurrences"`
	OccurrenceCount int             `json:"occurrence_count"`
	LatestTimestamp string          `json:"latest_timestamp"`
}

func (w wireRecord) toRecord(now time.Time) model.LogRecord {
	rec := model.LogRecord{
		ID:              decodeID(w.ID),
		Timestamp:       parseTimestamp(w.Timestamp, now),
		Level:           model.Level(w.Level),
		Source:          model.Source(w.Source),
		Message:         w.Message,
		Details:         w.Details,
		SourceComponent: w.SourceComponent,
		Hash:            w.Hash,
		Occurrences:     w.Occurrences,
	}
	if rec.Details.Kind == model.DetailsAbsent {
		rec.Details = w.Meta
	}
	if rec.SourceComponent == "" {
		rec.SourceComponent = w.Service
	}
	if rec.Occurrences < 1 && w.OccurrenceCount > 0 {
		rec.Occurrences = w.OccurrenceCount
	}
	rec.Normalize()
	return rec
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// parseTimestamp tries the formats the store's writers are known to emit.
// Unparseable input falls back to the observation time so the record still
// renders.
func parseTimestamp(s string, now time.Time) time.Time {
	if s == "" {
		return now
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}

// QueryLogs fetches records matching q. A 200 response with an empty logs
// array returns an empty non-nil slice and no error.
func (c *Client) QueryLogs(ctx context.Context, q Query) ([]model.LogRecord, error) {
	body, err := c.get(ctx, "/api/logs/database", q.values())
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Logs *[]wireRecord `json:"logs"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Logs == nil {
		return nil, fmt.Errorf("%w: malformed logs envelope", ErrStoreUnavailable)
	}
	now := time.Now()
	records := make([]model.LogRecord, 0, len(*envelope.Logs))
	for _, w := range *envelope.Logs {
		records = append(records, w.toRecord(now))
	}
	return records, nil
}

// QueryAggregated fetches pre-grouped records for the historical console.
// The store performs the similarity grouping; the client trusts its
// occurrence_count and latest_timestamp fields as-is.
func (c *Client) QueryAggregated(ctx context.Context, q Query) ([]model.AggregatedLogEntry, error) {
	q.GroupSimilar = true
	body, err := c.get(ctx, "/api/logs/database", q.values())
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Logs *[]wireRecord `json:"logs"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Logs == nil {
		return nil, fmt.Errorf("%w: malformed logs envelope", ErrStoreUnavailable)
	}
	now := time.Now()
	entries := make([]model.AggregatedLogEntry, 0, len(*envelope.Logs))
	for _, w := range *envelope.Logs {
		rec := w.toRecord(now)
		entries = append(entries, model.AggregatedLogEntry{
			LogRecord:       rec,
			FirstOccurrence: rec.Timestamp,
			LatestTimestamp: parseTimestamp(w.LatestTimestamp, rec.Timestamp),
		})
	}
	return entries, nil
}

// QueryCriticalEvents fetches the critical-specific path, which wraps its
// records in an events array rather than logs.
func (c *Client) QueryCriticalEvents(ctx context.Context, limit int) ([]model.LogRecord, error) {
	v := url.Values{}
	if limit <= 0 {
		limit = 20
	}
	v.Set("limit", strconv.Itoa(limit))
	body, err := c.get(ctx, "/api/logs/database/critical", v)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Events *[]wireRecord `json:"events"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Events == nil {
		return nil, fmt.Errorf("%w: malformed events envelope", ErrStoreUnavailable)
	}
	now := time.Now()
	records := make([]model.LogRecord, 0, len(*envelope.Events))
	for _, w := range *envelope.Events {
		records = append(records, w.toRecord(now))
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, v url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrStoreUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return body, nil
}
