package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// recordingSpeaker remembers what it was asked to speak.
type recordingSpeaker struct {
	calls []string
}

func (r *recordingSpeaker) Speak(_ context.Context, text, _, _ string) error {
	r.calls = append(r.calls, text)
	return nil
}

// TestClientSpeakRemote verifies a healthy synthesizer receives the cue and
// the fallback is never consulted.
func TestClientSpeakRemote(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/speech" {
			t.Errorf("path = %q, want /speech", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	fallback := &recordingSpeaker{}
	c := NewClient(srv.URL, time.Second, fallback, slog.Default())
	if err := c.Speak(context.Background(), "Nice depth!", "squat", "good"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "Nice depth!" || got.ActivityName != "squat" || got.FeedbackType != "good" {
		t.Errorf("request = %+v", got)
	}
	if len(fallback.calls) != 0 {
		t.Errorf("fallback called %d times for a healthy synthesizer", len(fallback.calls))
	}
}

// TestClientSpeak503FallsBack verifies an explicit 503 from the synthesizer
// routes the cue to the local fallback without surfacing an error.
func TestClientSpeak503FallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fallback := &recordingSpeaker{}
	c := NewClient(srv.URL, time.Second, fallback, slog.Default())
	if err := c.Speak(context.Background(), "Hold that finish.", "golf swing", "tip"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fallback.calls) != 1 || fallback.calls[0] != "Hold that finish." {
		t.Errorf("fallback calls = %v, want the cue text once", fallback.calls)
	}
}

// TestClientSpeakTransportErrorFallsBack verifies an unreachable synthesizer
// also routes to the fallback.
func TestClientSpeakTransportErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // dead before the first call

	fallback := &recordingSpeaker{}
	c := NewClient(srv.URL, 100*time.Millisecond, fallback, slog.Default())
	if err := c.Speak(context.Background(), "Rep 1: good.", "squat", "rep_complete"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fallback.calls) != 1 {
		t.Errorf("fallback calls = %d, want 1", len(fallback.calls))
	}
}

// TestLocalNeverFails verifies the local speaker absorbs everything.
func TestLocalNeverFails(t *testing.T) {
	l := NewLocal(slog.Default())
	if err := l.Speak(context.Background(), "anything", "", ""); err != nil {
		t.Errorf("local speaker returned %v", err)
	}
}
