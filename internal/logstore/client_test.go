package logstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

func TestQueryLogsEmptySuccessIsNotFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"logs": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	records, err := c.QueryLogs(context.Background(), Query{})
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if records == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}

func TestQueryLogsServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.QueryLogs(context.Background(), Query{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestQueryLogsMissingArrayIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.QueryLogs(context.Background(), Query{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestQueryLogsUnreachableIsUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if _, err := c.QueryLogs(context.Background(), Query{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestQueryLogsLenientDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"logs": [
			{"id": 42, "timestamp": "not-a-time", "level": "warning", "message": "odd record", "meta": {"k": 1}},
			{"id": "abc", "timestamp": "2025-06-01T10:00:00Z", "level": "ERROR", "source": "frontend", "message": "normal", "details": "text"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	records, err := c.QueryLogs(context.Background(), Query{})
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	odd := records[0]
	if odd.ID != "42" {
		t.Errorf("numeric id decoded as %q", odd.ID)
	}
	if odd.Level != model.LevelWarn {
		t.Errorf("level = %s, want WARN", odd.Level)
	}
	if odd.Source != model.SourceBackend {
		t.Errorf("source = %s, want backend default", odd.Source)
	}
	if time.Since(odd.Timestamp) > time.Minute {
		t.Errorf("bad timestamp should fall back to now, got %v", odd.Timestamp)
	}
	if odd.Details.Kind != model.DetailsStructured {
		t.Errorf("meta should populate details, got kind %v", odd.Details.Kind)
	}

	normal := records[1]
	if normal.Source != model.SourceFrontend {
		t.Errorf("source = %s, want frontend", normal.Source)
	}
	if normal.Details.String() != "text" {
		t.Errorf("details = %q", normal.Details.String())
	}
}

func TestQueryAggregatedTrustsStoreCounts(t *testing.T) {
	var gotGroupSimilar string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotGroupSimilar = r.URL.Query().Get("group_similar")
		w.Write([]byte(`{"logs": [
			{"id": "1", "timestamp": "2025-06-01T10:00:00Z", "level": "ERROR", "source": "backend",
			 "message": "db timeout", "occurrence_count": 7, "latest_timestamp": "2025-06-01T11:30:00Z"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	entries, err := c.QueryAggregated(context.Background(), Query{})
	if err != nil {
		t.Fatalf("QueryAggregated: %v", err)
	}
	if gotGroupSimilar != "true" {
		t.Errorf("group_similar = %q, want true", gotGroupSimilar)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e.Occurrences != 7 {
		t.Errorf("occurrences = %d, want 7 (store-supplied)", e.Occurrences)
	}
	if e.LatestTimestamp.Format(time.RFC3339) != "2025-06-01T11:30:00Z" {
		t.Errorf("latest = %v", e.LatestTimestamp)
	}
	if e.FirstOccurrence.Format(time.RFC3339) != "2025-06-01T10:00:00Z" {
		t.Errorf("first = %v", e.FirstOccurrence)
	}
}

func TestQueryCriticalEventsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/logs/database/critical" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"events": [{"id":"e1","level":"ERROR","source":"backend","message":"connection failed"}], "count": 1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	records, err := c.QueryCriticalEvents(context.Background(), 20)
	if err != nil {
		t.Fatalf("QueryCriticalEvents: %v", err)
	}
	if len(records) != 1 || records[0].Message != "connection failed" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestQueryParamsEncoding(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.RawQuery
		w.Write([]byte(`{"logs": []}`))
	}))
	defer srv.Close()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewClient(srv.URL)
	_, err := c.QueryLogs(context.Background(), Query{
		Limit:     50,
		Level:     model.LevelError,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("QueryLogs: %v", err)
	}
	for _, want := range []string{"limit=50", "level=ERROR", "sort=desc", "start_date=", "end_date="} {
		if !containsParam(got, want) {
			t.Errorf("query %q missing %q", got, want)
		}
	}
}

func containsParam(query, prefix string) bool {
	for _, part := range splitQuery(query) {
		if len(part) >= len(prefix) && part[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func splitQuery(query string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(query); i++ {
		if i == len(query) || query[i] == '&' {
			parts = append(parts, query[start:i])
			start = i + 1
		}
	}
	return parts
}
