// Package escalate forwards alert-worthy log records to the issue-tracker
// bridge. The error hash is the only deduplication key the downstream
// tracker understands; records without one get a timestamp-based temporary
// hash, so repeated un-hashed failures are not deduplicated server-side.
// That is a known limitation of the bridge, not of this client.
package escalate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

// ErrNotEscalatable rejects records below ERROR severity.
var ErrNotEscalatable = errors.New("only ERROR and CRITICAL records can be escalated")

const requestTimeout = 15 * time.Second

// Payload is the bridge's request body.
type Payload struct {
	ErrorHash         string `json:"error_hash"`
	LogMessage        string `json:"log_message"`
	LogDetails        string `json:"log_details,omitempty"`
	LogLevel          string `json:"log_level"`
	SourceComponent   string `json:"source_component,omitempty"`
	OccurrenceCount   int    `json:"occurrence_count"`
	CustomTitle       string `json:"custom_title,omitempty"`
	CustomDescription string `json:"custom_description,omitempty"`
}

// Issue identifies the created (or deduplicated) tracker issue.
type Issue struct {
	URL    string `json:"github_url"`
	Number int    `json:"issue_number"`
}

// Client posts escalations to the bridge endpoint.
type Client struct {
	baseURL string
	httpc   *http.Client
	now     func() time.Time
}

// NewClient creates an escalation client for the given bridge base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: requestTimeout},
		now:     time.Now,
	}
}

// BuildPayload assembles the bridge request for a record. A missing hash is
// replaced with "temp_<unix-ms>".
func (c *Client) BuildPayload(rec model.LogRecord, customTitle, customDescription string) Payload {
	hash := rec.Hash
	if hash == "" {
		hash = fmt.Sprintf("temp_%d", c.now().UnixMilli())
	}
	occurrences := rec.Occurrences
	if occurrences < 1 {
		occurrences = 1
	}
	return Payload{
		ErrorHash:         hash,
		LogMessage:        rec.Message,
		LogDetails:        rec.Details.String(),
		LogLevel:          string(rec.Level),
		SourceComponent:   rec.SourceComponent,
		OccurrenceCount:   occurrences,
		CustomTitle:       customTitle,
		CustomDescription: customDescription,
	}
}

// CreateIssue escalates the record. A bridge failure is surfaced with the
// tracker's message verbatim; there is no retry.
func (c *Client) CreateIssue(ctx context.Context, rec model.LogRecord, customTitle, customDescription string) (Issue, error) {
	if !rec.Escalatable() {
		return Issue{}, ErrNotEscalatable
	}

	body, err := json.Marshal(c.BuildPayload(rec, customTitle, customDescription))
	if err != nil {
		return Issue{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/errors/report-to-github", bytes.NewReader(body))
	if err != nil {
		return Issue{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Issue{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil && failure.Message != "" {
			return Issue{}, errors.New(failure.Message)
		}
		return Issue{}, fmt.Errorf("issue tracker returned status %d", resp.StatusCode)
	}

	var issue Issue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return Issue{}, fmt.Errorf("decoding tracker response: %w", err)
	}
	return issue, nil
}
