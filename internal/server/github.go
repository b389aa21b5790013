package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTrackerNotConfigured means no GitHub token/repo was provided.
var ErrTrackerNotConfigured = errors.New("github tracker not configured")

// IssueTracker creates issues downstream of the escalation bridge.
type IssueTracker interface {
	CreateIssue(ctx context.Context, title, body string, labels []string) (url string, number int, err error)
}

// GitHubTracker talks to the GitHub issues API.
type GitHubTracker struct {
	apiBase string
	repo    string // "owner/name"
	token   string
	httpc   *http.Client
}

// NewGitHubTracker creates a tracker for the given repo. An empty token or
// repo yields a tracker that fails with ErrTrackerNotConfigured.
func NewGitHubTracker(repo, token string) *GitHubTracker {
	return &GitHubTracker{
		apiBase: "https://api.github.com",
		repo:    repo,
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GitHubTracker) CreateIssue(ctx context.Context, title, body string, labels []string) (string, int, error) {
	if g.repo == "" || g.token == "" {
		return "", 0, ErrTrackerNotConfigured
	}

	payload, err := json.Marshal(map[string]any{
		"title":  title,
		"body":   body,
		"labels": labels,
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/repos/%s/issues", g.apiBase, g.repo), bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var ghErr struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&ghErr); err == nil && ghErr.Message != "" {
			return "", 0, fmt.Errorf("github: %s", ghErr.Message)
		}
		return "", 0, fmt.Errorf("github returned status %d", resp.StatusCode)
	}

	var created struct {
		HTMLURL string `json:"html_url"`
		Number  int    `json:"number"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", 0, fmt.Errorf("decoding github response: %w", err)
	}
	return created.HTMLURL, created.Number, nil
}
