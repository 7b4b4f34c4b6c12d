package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repcoach/internal/cue"
	"github.com/claude/repcoach/internal/engine"
	"github.com/claude/repcoach/internal/session"
)

// HTTPClient implements DataSource by calling the RepCoach REST API. Used
// for remote MCP mode where the binary runs locally (stdio) but sessions
// live on the server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

// ListSessions satisfies DataSource over the REST API.
func (c *HTTPClient) ListSessions(ctx context.Context) ([]session.Summary, error) {
	body, err := c.get(ctx, "/api/v1/sessions")
	if err != nil {
		return nil, err
	}
	var out []session.Summary
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return out, nil
}

// GetSession satisfies DataSource over the REST API.
func (c *HTTPClient) GetSession(ctx context.Context, id string) (*session.CoachingSession, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+id)
	if err != nil {
		return nil, err
	}
	var out session.CoachingSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &out, nil
}

// GetSessionReps satisfies DataSource over the REST API.
func (c *HTTPClient) GetSessionReps(ctx context.Context, id string) ([]session.RepRecord, error) {
	sess, err := c.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Reps, nil
}

// GetSessionCues satisfies DataSource over the REST API.
func (c *HTTPClient) GetSessionCues(ctx context.Context, id string) ([]cue.Cue, error) {
	sess, err := c.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Cues, nil
}

// ActivityCatalog satisfies DataSource over the REST API.
func (c *HTTPClient) ActivityCatalog(ctx context.Context) ([]engine.Info, error) {
	body, err := c.get(ctx, "/api/v1/activities")
	if err != nil {
		return nil, err
	}
	var out []engine.Info
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("httpclient: decode activities: %w", err)
	}
	return out, nil
}
