package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// Server exposes the log store over HTTP and websocket.
type Server struct {
	addr    string
	store   Store
	hub     *Hub
	tracker IssueTracker

	srv    *http.Server
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server bound to addr on top of the given store.
func New(addr string, store Store, hub *Hub, tracker IssueTracker) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:    addr,
		store:   store,
		hub:     hub,
		tracker: tracker,
		ctx:     ctx,
		cancel:  cancel,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/api/health", s.handleHealth)
	router.GET("/api/logs/database", s.handleQueryLogs)
	router.GET("/api/logs/database/critical", s.handleCriticalEvents)
	router.POST("/api/logs/database", s.handleIngest)
	router.POST("/api/errors/report-to-github", s.handleEscalate)
	router.GET("/ws/logs", func(c *gin.Context) {
		serveWS(s.hub, c.Writer, c.Request)
	})

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving. It blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("http server starting")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"clients":   s.hub.ClientCount(),
		"timestamp": time.Now().UTC(),
	})
}

// logJSON is the wire shape of one log record.
type logJSON struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	Level           string          `json:"level"`
	Source          string          `json:"source"`
	Message         string          `json:"message"`
	Details         json.RawMessage `json:"details,omitempty"`
	SourceComponent string          `json:"source_component,omitempty"`
	Hash            string          `json:"hash,omitempty"`
	OccurrenceCount int             `json:"occurrence_count,omitempty"`
	LatestTimestamp *time.Time      `json:"latest_timestamp,omitempty"`
}

func toLogJSON(e LogEntry) logJSON {
	out := logJSON{
		ID:              e.ID,
		Timestamp:       e.Timestamp,
		Level:           e.Level,
		Source:          e.Source,
		Message:         e.Message,
		SourceComponent: e.SourceComponent,
		Hash:            e.Hash,
	}
	if e.Details != "" {
		if json.Valid([]byte(e.Details)) {
			out.Details = json.RawMessage(e.Details)
		} else if raw, err := json.Marshal(e.Details); err == nil {
			out.Details = raw
		}
	}
	return out
}

func toGroupedJSON(g groupedEntry) logJSON {
	out := toLogJSON(g.LogEntry)
	out.OccurrenceCount = g.OccurrenceCount
	latest := g.LatestTimestamp
	out.LatestTimestamp = &latest
	return out
}

const dateOnlyLayout = "2006-01-02"

// parseDateParam accepts timestamps and bare dates. dateOnly reports that the
// input carried no time component, so callers can decide whether it names an
// instant or a whole day.
func parseDateParam(raw string) (t time.Time, dateOnly bool, err error) {
	if raw == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", dateOnlyLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, layout == dateOnlyLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized date %q", raw)
}

func (s *Server) handleQueryLogs(c *gin.Context) {
	f := Filters{
		Level:  c.Query("level"),
		Source: c.Query("source"),
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort", "desc"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid limit"})
			return
		}
		f.Limit = n
	}

	var err error
	if f.StartDate, _, err = parseDateParam(c.Query("start_date")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	var endDateOnly bool
	if f.EndDate, endDateOnly, err = parseDateParam(c.Query("end_date")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	// A bare end date means "through that day". Full timestamps stay exact:
	// a midnight RFC3339 end is a half-open boundary, not a day to include.
	if !f.EndDate.IsZero() && endDateOnly {
		f.EndDate = f.EndDate.Add(24 * time.Hour)
	}

	entries, err := s.store.QueryLogs(c.Request.Context(), f)
	if err != nil {
		log.Error().Err(err).Msg("log query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "log query failed"})
		return
	}

	var logs []logJSON
	if strings.EqualFold(c.Query("group_similar"), "true") {
		grouped := groupSimilar(entries, f.Sort)
		logs = make([]logJSON, 0, len(grouped))
		for _, g := range grouped {
			logs = append(logs, toGroupedJSON(g))
		}
	} else {
		logs = make([]logJSON, 0, len(entries))
		for _, e := range entries {
			logs = append(logs, toLogJSON(e))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
		"pagination": gin.H{
			"total":    len(logs),
			"returned": len(logs),
		},
		"filters": gin.H{
			"level":  f.Level,
			"source": f.Source,
			"search": f.Search,
			"sort":   f.Sort,
		},
	})
}

// criticalEventJSON is one entry of the critical events feed.
type criticalEventJSON struct {
	logJSON
	Severity string `json:"severity"`
}

func (s *Server) handleCriticalEvents(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	now := time.Now()
	entries, err := s.store.QueryLogs(c.Request.Context(), Filters{
		StartDate: now.Add(-24 * time.Hour),
		Limit:     model.MaxQueryLimit,
		Sort:      "desc",
	})
	if err != nil {
		log.Error().Err(err).Msg("critical events query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "critical events query failed"})
		return
	}

	events := make([]criticalEventJSON, 0, limit)
	for _, e := range entries {
		if len(events) == limit {
			break
		}
		severe := e.Level == string(model.LevelError) || e.Level == string(model.LevelCritical)
		matched, high := matchesCriticalPattern(e.Message)
		if !severe && !matched {
			continue
		}
		severity := "medium"
		if high || e.Level == string(model.LevelCritical) {
			severity = "high"
		}
		events = append(events, criticalEventJSON{logJSON: toLogJSON(e), Severity: severity})
	}

	c.JSON(http.StatusOK, gin.H{
		"events":    events,
		"count":     len(events),
		"timestamp": now.UTC(),
	})
}

// ingestRecord is the accepted ingest shape; lenient about details.
type ingestRecord struct {
	Timestamp       string          `json:"timestamp"`
	Level           string          `json:"level"`
	Source          string          `json:"source"`
	Message         string          `json:"message"`
	Details         json.RawMessage `json:"details"`
	SourceComponent string          `json:"source_component"`
	Hash            string          `json:"hash"`
}

func (r ingestRecord) toEntry(now time.Time) (LogEntry, error) {
	if strings.TrimSpace(r.Message) == "" {
		return LogEntry{}, errors.New("message is required")
	}

	ts := now
	if r.Timestamp != "" {
		parsed, _, err := parseDateParam(r.Timestamp)
		if err != nil {
			return LogEntry{}, err
		}
		ts = parsed
	}

	details := ""
	if len(r.Details) > 0 && string(r.Details) != "null" {
		details = string(r.Details)
	}

	return LogEntry{
		ID:              uuid.New().String(),
		Timestamp:       ts,
		Level:           string(model.NormalizeLevel(r.Level)),
		Source:          string(model.NormalizeSource(r.Source)),
		Message:         r.Message,
		Details:         details,
		SourceComponent: r.SourceComponent,
		Hash:            r.Hash,
	}, nil
}

// handleIngest accepts a single record or a batch and broadcasts each
// stored entry to live-tail clients.
func (s *Server) handleIngest(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable body"})
		return
	}

	var records []ingestRecord
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &records); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid batch payload"})
			return
		}
	} else {
		var one ingestRecord
		if err := json.Unmarshal(body, &one); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
			return
		}
		records = append(records, one)
	}

	now := time.Now()
	stored := make([]string, 0, len(records))
	for _, r := range records {
		entry, err := r.toEntry(now)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		if err := s.store.InsertLog(c.Request.Context(), &entry); err != nil {
			log.Error().Err(err).Msg("log insert failed")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "log insert failed"})
			return
		}
		s.hub.BroadcastLog(entry)
		stored = append(stored, entry.ID)
	}

	c.JSON(http.StatusCreated, gin.H{"ids": stored, "count": len(stored)})
}

// escalateRequest mirrors the bridge payload sent by clients.
type escalateRequest struct {
	ErrorHash         string          `json:"error_hash"`
	LogMessage        string          `json:"log_message"`
	LogDetails        json.RawMessage `json:"log_details"`
	LogLevel          string          `json:"log_level"`
	SourceComponent   string          `json:"source_component"`
	OccurrenceCount   int             `json:"occurrence_count"`
	CustomTitle       string          `json:"custom_title"`
	CustomDescription string          `json:"custom_description"`
}

// handleEscalate deduplicates by error hash, then forwards new errors to the
// issue tracker.
func (s *Server) handleEscalate(c *gin.Context) {
	var req escalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	if req.ErrorHash == "" || req.LogMessage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "error_hash and log_message are required"})
		return
	}

	ctx := c.Request.Context()
	if existing, err := s.store.FindIssue(ctx, req.ErrorHash); err != nil {
		log.Error().Err(err).Msg("issue lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "issue lookup failed"})
		return
	} else if existing != nil {
		if err := s.store.BumpIssue(ctx, req.ErrorHash); err != nil {
			log.Warn().Err(err).Str("hash", req.ErrorHash).Msg("occurrence bump failed")
		}
		c.JSON(http.StatusOK, gin.H{
			"github_url":   existing.IssueURL,
			"issue_number": existing.IssueNumber,
			"existing":     true,
		})
		return
	}

	title := req.CustomTitle
	if title == "" {
		title = fmt.Sprintf("[%s] %s", req.LogLevel, truncate(req.LogMessage, 120))
	}
	body := buildIssueBody(req)

	url, number, err := s.tracker.CreateIssue(ctx, title, body, []string{"auto-reported", strings.ToLower(req.LogLevel)})
	if err != nil {
		if errors.Is(err, ErrTrackerNotConfigured) {
			c.JSON(http.StatusBadGateway, gin.H{"message": "github token not configured"})
			return
		}
		log.Error().Err(err).Str("hash", req.ErrorHash).Msg("issue creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
		return
	}

	issue := &TrackedIssue{
		ErrorHash:       req.ErrorHash,
		IssueURL:        url,
		IssueNumber:     number,
		OccurrenceCount: req.OccurrenceCount,
	}
	if err := s.store.SaveIssue(ctx, issue); err != nil {
		log.Warn().Err(err).Str("hash", req.ErrorHash).Msg("issue record save failed")
	}

	c.JSON(http.StatusCreated, gin.H{
		"github_url":   url,
		"issue_number": number,
	})
}

func buildIssueBody(req escalateRequest) string {
	var b strings.Builder
	if req.CustomDescription != "" {
		b.WriteString(req.CustomDescription)
		b.WriteString("\n\n---\n\n")
	}
	fmt.Fprintf(&b, "**Level:** %s\n", req.LogLevel)
	fmt.Fprintf(&b, "**Message:** %s\n", req.LogMessage)
	if req.SourceComponent != "" {
		fmt.Fprintf(&b, "**Component:** %s\n", req.SourceComponent)
	}
	if req.OccurrenceCount > 1 {
		fmt.Fprintf(&b, "**Occurrences:** %d\n", req.OccurrenceCount)
	}
	fmt.Fprintf(&b, "**Error hash:** `%s`\n", req.ErrorHash)
	if len(req.LogDetails) > 0 && string(req.LogDetails) != "null" {
		fmt.Fprintf(&b, "\n```json\n%s\n```\n", string(req.LogDetails))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Cut on a rune boundary so multi-byte text never yields invalid UTF-8.
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
