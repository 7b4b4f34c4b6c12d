// Package feedback calls the optional external AI feedback capability.
//
// The service may be slow, may fail, or may be absent entirely — all of
// those are normal operating modes for the pipeline, which falls back to
// the local cue table. The client therefore never retries and keeps a hard
// timeout; a non-2xx status or an undecodable body is reported as an error
// for the caller to log and absorb.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/repcoach/internal/landmark"
)

// DefaultTimeout bounds one feedback call. A response arriving after the
// timeout is discarded by the transport; the session's epoch context
// discards responses that outlive their session.
const DefaultTimeout = 2500 * time.Millisecond

// Request is the wire format sent to the feedback service.
type Request struct {
	ActivityType string           `json:"activity_type"`
	Landmarks    []landmark.Point `json:"landmarks"`
	Timestamp    int64            `json:"timestamp"`
	RepNumber    int              `json:"rep_number,omitempty"`
	FormScore    int              `json:"form_score,omitempty"`
}

// Response is the wire format returned by the feedback service. The
// movement fields are advisory; the local state machine remains the source
// of truth for rep counting.
type Response struct {
	Feedback          string `json:"feedback"`
	MovementCompleted *bool  `json:"movement_completed,omitempty"`
	RepCount          *int   `json:"rep_count,omitempty"`
}

// Client is an HTTP client for the feedback service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a feedback client with the given per-call timeout.
// A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RepFeedback asks the service for coaching text on a completed rep. It
// satisfies cue.Source. Empty feedback with a nil error means the service
// answered but had nothing to say; the caller falls back either way.
func (c *Client) RepFeedback(ctx context.Context, activity string, frame landmark.Frame, repNumber, formScore int) (string, error) {
	req := Request{
		ActivityType: activity,
		Landmarks:    frame.Points,
		Timestamp:    frame.Timestamp,
		RepNumber:    repNumber,
		FormScore:    formScore,
	}
	resp, err := c.analyze(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Feedback, nil
}

func (c *Client) analyze(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("feedback: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("feedback: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("feedback: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("feedback: read body: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feedback: service returned %d", httpResp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		// Non-JSON bodies mean the service is misbehaving; treat as
		// unavailable rather than crashing on a bad upstream.
		return nil, fmt.Errorf("feedback: decode response: %w", err)
	}
	return &out, nil
}
