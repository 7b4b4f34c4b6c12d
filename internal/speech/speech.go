// Package speech delivers accepted cues to the speech channel.
//
// The remote synthesizer is optional: an explicit 503, any transport error,
// or no configured URL at all routes the cue to a local best-effort speaker
// instead. Speaking never feeds back into pipeline state — a failed cue is
// logged and dropped.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Speaker is the session-facing speech contract.
type Speaker interface {
	// Speak renders text for the user. It must not block the caller beyond
	// its own timeout and must absorb failures internally where a local
	// fallback exists.
	Speak(ctx context.Context, text, activityName, feedbackType string) error
}

// request is the wire format for the remote synthesizer.
type request struct {
	Text         string `json:"text"`
	ActivityName string `json:"activity_name"`
	FeedbackType string `json:"feedback_type"`
}

// Client speaks through a remote synthesizer with a local fallback.
type Client struct {
	baseURL    string
	httpClient *http.Client
	fallback   Speaker
	log        *slog.Logger
}

// NewClient creates a speech client. fallback is used on any remote
// failure and must never be nil; NewLocal provides the default.
func NewClient(baseURL string, timeout time.Duration, fallback Speaker, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		fallback:   fallback,
		log:        log,
	}
}

// Speak sends the cue to the remote synthesizer and falls back locally on
// any failure, including an explicit 503 from a synthesizer that is up but
// unconfigured. The audio itself is played by the consuming layer; this
// client only confirms synthesis happened.
func (c *Client) Speak(ctx context.Context, text, activityName, feedbackType string) error {
	if err := c.remote(ctx, text, activityName, feedbackType); err != nil {
		c.log.Warn("remote speech failed, using local fallback", "error", err)
		return c.fallback.Speak(ctx, text, activityName, feedbackType)
	}
	return nil
}

func (c *Client) remote(ctx context.Context, text, activityName, feedbackType string) error {
	body, err := json.Marshal(request{Text: text, ActivityName: activityName, FeedbackType: feedbackType})
	if err != nil {
		return fmt.Errorf("speech: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("speech: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("speech: synthesizer unavailable (503)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech: synthesizer returned %d", resp.StatusCode)
	}

	// Drain the audio bytes; delivery to an output device is out of scope.
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("speech: read audio: %w", err)
	}
	return nil
}

// Local is the best-effort fallback speaker: it logs the cue so the
// surrounding layer (a browser's speech synthesis, a console) can render
// it. It never fails.
type Local struct {
	log *slog.Logger
}

// NewLocal creates the local fallback speaker.
func NewLocal(log *slog.Logger) *Local {
	return &Local{log: log}
}

// Speak logs the cue text.
func (l *Local) Speak(_ context.Context, text, activityName, feedbackType string) error {
	l.log.Info("speaking locally", "text", text, "activity", activityName, "type", feedbackType)
	return nil
}
