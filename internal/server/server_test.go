package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type fakeStore struct {
	entries    []LogEntry
	inserted   []LogEntry
	issues     map[string]*TrackedIssue
	bumped     []string
	queryErr   error
	gotFilters Filters
}

func newFakeStore() *fakeStore {
	return &fakeStore{issues: make(map[string]*TrackedIssue)}
}

func (f *fakeStore) InsertLog(_ context.Context, entry *LogEntry) error {
	f.inserted = append(f.inserted, *entry)
	return nil
}

func (f *fakeStore) QueryLogs(_ context.Context, filters Filters) ([]LogEntry, error) {
	f.gotFilters = filters
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []LogEntry
	for _, e := range f.entries {
		if filters.Level != "" && !strings.EqualFold(filters.Level, "ALL") && e.Level != strings.ToUpper(filters.Level) {
			continue
		}
		if !filters.StartDate.IsZero() && e.Timestamp.Before(filters.StartDate) {
			continue
		}
		if !filters.EndDate.IsZero() && !e.Timestamp.Before(filters.EndDate) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) FindIssue(_ context.Context, hash string) (*TrackedIssue, error) {
	return f.issues[hash], nil
}

func (f *fakeStore) SaveIssue(_ context.Context, issue *TrackedIssue) error {
	f.issues[issue.ErrorHash] = issue
	return nil
}

func (f *fakeStore) BumpIssue(_ context.Context, hash string) error {
	f.bumped = append(f.bumped, hash)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeTracker struct {
	url    string
	number int
	err    error
	titles []string
}

func (f *fakeTracker) CreateIssue(_ context.Context, title, _ string, _ []string) (string, int, error) {
	f.titles = append(f.titles, title)
	if f.err != nil {
		return "", 0, f.err
	}
	return f.url, f.number, nil
}

func newTestServer(store Store, tracker IssueTracker) *Server {
	hub := NewHub()
	go hub.Run(context.Background())
	return New("127.0.0.1:0", store, hub, tracker)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestQueryLogsEnvelope(t *testing.T) {
	store := newFakeStore()
	store.entries = []LogEntry{
		{ID: "1", Level: "ERROR", Source: "backend", Message: "boom", Timestamp: time.Now()},
	}
	s := newTestServer(store, &fakeTracker{})

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/logs/database?limit=50", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	logs, ok := body["logs"].([]any)
	if !ok || len(logs) != 1 {
		t.Fatalf("expected 1 log in envelope, got %v", body["logs"])
	}
	if _, ok := body["pagination"]; !ok {
		t.Fatal("envelope missing pagination")
	}
	if _, ok := body["filters"]; !ok {
		t.Fatal("envelope missing filters")
	}
}

func TestQueryLogsGroupSimilar(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.entries = []LogEntry{
		{ID: "1", Level: "ERROR", Source: "backend", Message: "db down", Timestamp: now},
		{ID: "2", Level: "ERROR", Source: "backend", Message: "db down", Timestamp: now.Add(time.Minute)},
	}
	s := newTestServer(store, &fakeTracker{})

	_, body := doJSON(t, s.Handler(), http.MethodGet, "/api/logs/database?group_similar=true", "")
	logs := body["logs"].([]any)
	if len(logs) != 1 {
		t.Fatalf("expected 1 grouped row, got %d", len(logs))
	}
	row := logs[0].(map[string]any)
	if row["occurrence_count"].(float64) != 2 {
		t.Fatalf("occurrence_count = %v", row["occurrence_count"])
	}
	if _, ok := row["latest_timestamp"]; !ok {
		t.Fatal("grouped row missing latest_timestamp")
	}
}

func TestMidnightEndDateStaysExclusive(t *testing.T) {
	loc := time.UTC
	midnight := time.Date(2026, 9, 1, 0, 0, 0, 0, loc)
	store := newFakeStore()
	store.entries = []LogEntry{
		{ID: "today", Level: "INFO", Source: "backend", Message: "posted today",
			Timestamp: midnight.Add(10 * time.Hour)},
		{ID: "yesterday", Level: "INFO", Source: "backend", Message: "posted yesterday",
			Timestamp: midnight.Add(-14 * time.Hour)},
	}
	s := newTestServer(store, &fakeTracker{})

	// A calendar-day window ends at midnight exactly; the boundary must not
	// be widened into the following day.
	path := "/api/logs/database?start_date=" + midnight.AddDate(0, 0, -1).Format(time.RFC3339) +
		"&end_date=" + midnight.Format(time.RFC3339)
	rec, body := doJSON(t, s.Handler(), http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if !store.gotFilters.EndDate.Equal(midnight) {
		t.Fatalf("end date widened to %v, want %v", store.gotFilters.EndDate, midnight)
	}
	logs := body["logs"].([]any)
	if len(logs) != 1 {
		t.Fatalf("expected only yesterday's record, got %d", len(logs))
	}
	if logs[0].(map[string]any)["id"] != "yesterday" {
		t.Fatalf("wrong record in window: %v", logs[0])
	}
}

func TestDateOnlyEndDateCoversWholeDay(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, &fakeTracker{})

	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/api/logs/database?end_date=2026-09-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	if !store.gotFilters.EndDate.Equal(want) {
		t.Fatalf("bare date should extend through the day: got %v, want %v", store.gotFilters.EndDate, want)
	}
}

func TestQueryLogsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errors.New("db gone")
	s := newTestServer(store, &fakeTracker{})

	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/api/logs/database", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestCriticalEventsFeed(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.entries = []LogEntry{
		{ID: "1", Level: "CRITICAL", Source: "backend", Message: "Database pool exhausted", Timestamp: now},
		{ID: "2", Level: "ERROR", Source: "backend", Message: "Payment timeout", Timestamp: now},
		{ID: "3", Level: "INFO", Source: "backend", Message: "User logged in", Timestamp: now},
		{ID: "4", Level: "WARN", Source: "backend", Message: "Unauthorized access attempt", Timestamp: now},
	}
	s := newTestServer(store, &fakeTracker{})

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/logs/database/critical", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	events := body["events"].([]any)
	if len(events) != 3 {
		t.Fatalf("expected 3 events (INFO non-matching excluded), got %d", len(events))
	}
	if body["count"].(float64) != 3 {
		t.Fatalf("count = %v", body["count"])
	}

	first := events[0].(map[string]any)
	if first["severity"] != "high" {
		t.Fatalf("CRITICAL entry severity = %v, want high", first["severity"])
	}
	second := events[1].(map[string]any)
	if second["severity"] != "medium" {
		t.Fatalf("ERROR timeout severity = %v, want medium", second["severity"])
	}
}

func TestIngestSingleRecord(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, &fakeTracker{})

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/logs/database",
		`{"level":"warning","message":"disk 90% full","details":{"disk":"/dev/sda1"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserted))
	}
	e := store.inserted[0]
	if e.Level != "WARN" {
		t.Fatalf("level normalized to %q, want WARN", e.Level)
	}
	if e.Source != "backend" {
		t.Fatalf("source defaulted to %q, want backend", e.Source)
	}
	if e.ID == "" {
		t.Fatal("entry should get a generated id")
	}
	if !strings.Contains(e.Details, "/dev/sda1") {
		t.Fatalf("details not preserved: %q", e.Details)
	}
}

func TestIngestBatch(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store, &fakeTracker{})

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/logs/database",
		`[{"level":"info","message":"a"},{"level":"error","message":"b"}]`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	if body["count"].(float64) != 2 {
		t.Fatalf("count = %v", body["count"])
	}
	if len(store.inserted) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(store.inserted))
	}
}

func TestIngestRejectsEmptyMessage(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeTracker{})
	rec, _ := doJSON(t, s.Handler(), http.MethodPost, "/api/logs/database", `{"level":"info","message":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestEscalateCreatesIssue(t *testing.T) {
	store := newFakeStore()
	tracker := &fakeTracker{url: "https://github.com/acme/app/issues/7", number: 7}
	s := newTestServer(store, tracker)

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/errors/report-to-github",
		`{"error_hash":"h1","log_message":"db down","log_level":"ERROR","occurrence_count":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %v", rec.Code, body)
	}
	if body["github_url"] != "https://github.com/acme/app/issues/7" {
		t.Fatalf("github_url = %v", body["github_url"])
	}
	if body["issue_number"].(float64) != 7 {
		t.Fatalf("issue_number = %v", body["issue_number"])
	}
	if store.issues["h1"] == nil {
		t.Fatal("issue not recorded for dedup")
	}
}

func TestEscalateDeduplicatesByHash(t *testing.T) {
	store := newFakeStore()
	store.issues["h1"] = &TrackedIssue{ErrorHash: "h1", IssueURL: "https://github.com/acme/app/issues/3", IssueNumber: 3}
	tracker := &fakeTracker{url: "https://github.com/acme/app/issues/99", number: 99}
	s := newTestServer(store, tracker)

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/errors/report-to-github",
		`{"error_hash":"h1","log_message":"db down","log_level":"ERROR"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for existing issue", rec.Code)
	}
	if body["issue_number"].(float64) != 3 {
		t.Fatalf("should return the existing issue, got %v", body["issue_number"])
	}
	if len(tracker.titles) != 0 {
		t.Fatal("tracker must not be called for a known hash")
	}
	if len(store.bumped) != 1 || store.bumped[0] != "h1" {
		t.Fatalf("occurrence count not bumped: %v", store.bumped)
	}
}

func TestEscalateUnconfiguredTracker(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeTracker{err: ErrTrackerNotConfigured})

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/errors/report-to-github",
		`{"error_hash":"h2","log_message":"boom","log_level":"ERROR"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body["message"] != "github token not configured" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestEscalateTrackerErrorPassedThrough(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeTracker{err: errors.New("github: Validation Failed")})

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/errors/report-to-github",
		`{"error_hash":"h3","log_message":"boom","log_level":"CRITICAL"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body["message"] != "github: Validation Failed" {
		t.Fatalf("tracker error not surfaced verbatim: %v", body["message"])
	}
}

func TestEscalateRequiresHashAndMessage(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeTracker{})
	rec, _ := doJSON(t, s.Handler(), http.MethodPost, "/api/errors/report-to-github", `{"log_level":"ERROR"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTruncateCutsOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("é", 80) // 160 bytes of two-byte runes
	got := truncate(s, 121)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated string missing ellipsis: %q", got)
	}
	if truncate("short", 120) != "short" {
		t.Fatal("short strings must pass through unchanged")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeTracker{})
	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("status field = %v", body["status"])
	}
}
