package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/repcoach/internal/session"
	"github.com/gorilla/websocket"
)

// TestEventStream verifies the websocket endpoint delivers pipeline events
// for frames ingested while a client is connected.
func TestEventStream(t *testing.T) {
	srv := testServer(t)
	id := startTestSession(t, srv, "squat")

	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/api/v1/sessions/" + id + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// Give the handler a moment to attach its subscription after the
	// handshake before any events are produced.
	time.Sleep(50 * time.Millisecond)

	// Ingest one fully visible frame over the REST API; the pose_detected
	// event must arrive on the stream.
	frameBody, _ := json.Marshal(validFrame(1000))
	req, _ := http.NewRequest(http.MethodPost, httpSrv.URL+"/api/v1/sessions/"+id+"/frames", strings.NewReader(string(frameBody)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("ingest status = %d", httpResp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var sawPose bool
	for !sawPose {
		var ev session.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("reading event: %v", err)
		}
		if ev.Kind == session.EventPoseDetected {
			if ev.PoseDetected == nil || !*ev.PoseDetected {
				t.Fatalf("pose event payload = %+v", ev.PoseDetected)
			}
			sawPose = true
		}
	}
}

// TestEventStreamUnknownSession verifies the endpoint refuses to upgrade
// for a session that does not exist.
func TestEventStreamUnknownSession(t *testing.T) {
	srv := testServer(t)
	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/api/v1/sessions/00000000-0000-0000-0000-000000000000/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		conn.Close()
		t.Fatal("dial succeeded for an unknown session")
	}
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	}
}
