package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/repcoach/internal/landmark"
	"github.com/claude/repcoach/internal/session"
)

const testAPIKey = "test-key"

func testServer(t *testing.T) *Server {
	t.Helper()
	registry := session.NewRegistry(session.Options{Log: slog.Default()}, slog.Default())
	return New(registry, testAPIKey, slog.Default())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func startTestSession(t *testing.T, srv *Server, activity string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]string{"activity": activity}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("start session: status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.ID
}

// validFrame is a minimal frame that passes squat landmark validation.
func validFrame(ts int64) landmark.Frame {
	points := make([]landmark.Point, landmark.NumPoints)
	for i := range points {
		points[i] = landmark.Point{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	return landmark.Frame{Points: points, Timestamp: ts}
}

// TestStartSession verifies session creation returns 201 with the resolved
// activity.
func TestStartSession(t *testing.T) {
	srv := testServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]string{"activity": "squat form check"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		ID           string `json:"id"`
		Activity     string `json:"activity"`
		ActivityName string `json:"activityName"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" {
		t.Error("empty session ID")
	}
	if resp.Activity != "squat" {
		t.Errorf("activity = %q, want squat", resp.Activity)
	}
	if resp.ActivityName != "squat form check" {
		t.Errorf("activityName = %q", resp.ActivityName)
	}
}

// TestStartSessionMissingActivity verifies the activity field is required.
func TestStartSessionMissingActivity(t *testing.T) {
	srv := testServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]string{}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestIngestFrameRequiresAPIKey verifies frame ingest rejects missing and
// wrong keys.
func TestIngestFrameRequiresAPIKey(t *testing.T) {
	srv := testServer(t)
	id := startTestSession(t, srv, "squat")
	path := "/api/v1/sessions/" + id + "/frames"

	if rec := doJSON(t, srv, http.MethodPost, path, validFrame(1000), ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodPost, path, validFrame(1000), "wrong-key"); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d, want 403", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodPost, path, validFrame(1000), testAPIKey); rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200, body = %s", rec.Code, rec.Body)
	}
}

// TestIngestFrameResult verifies the per-frame result shape for a detected
// pose.
func TestIngestFrameResult(t *testing.T) {
	srv := testServer(t)
	id := startTestSession(t, srv, "squat")
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/frames", validFrame(1000), testAPIKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var res session.FrameResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.PoseDetected {
		t.Error("pose not detected for a fully visible frame")
	}
	if res.Phase == "" {
		t.Error("empty phase in frame result")
	}
}

// TestGetSession verifies session retrieval by ID and the 404 for unknown
// IDs.
func TestGetSession(t *testing.T) {
	srv := testServer(t)
	id := startTestSession(t, srv, "squat")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap session.CoachingSession
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.ID.String() != id {
		t.Errorf("id = %s, want %s", snap.ID, id)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/00000000-0000-0000-0000-000000000000", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id: status = %d, want 400", rec.Code)
	}
}

// TestFinalize verifies finalize is idempotent over HTTP and that frames
// after finalize conflict.
func TestFinalize(t *testing.T) {
	srv := testServer(t)
	id := startTestSession(t, srv, "squat")
	path := "/api/v1/sessions/" + id + "/finalize"

	rec := doJSON(t, srv, http.MethodPost, path, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var first session.CoachingSession
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if !first.Finalized {
		t.Error("session not finalized")
	}

	rec = doJSON(t, srv, http.MethodPost, path, nil, "")
	var second session.CoachingSession
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if !second.EndTime.Equal(first.EndTime) {
		t.Errorf("second finalize moved the end time: %v vs %v", second.EndTime, first.EndTime)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/frames", validFrame(1000), testAPIKey)
	if rec.Code != http.StatusConflict {
		t.Errorf("frame after finalize: status = %d, want 409", rec.Code)
	}
}

// TestListSessions verifies the listing endpoint.
func TestListSessions(t *testing.T) {
	srv := testServer(t)
	startTestSession(t, srv, "squat")
	startTestSession(t, srv, "golf swing")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/sessions", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var list []session.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("list = %d sessions, want 2", len(list))
	}
}

// TestActivities verifies the catalog endpoint lists all five activities.
func TestActivities(t *testing.T) {
	srv := testServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/activities", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var catalog []struct {
		Activity   string `json:"activity"`
		CountsReps bool   `json:"countsReps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &catalog); err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 5 {
		t.Fatalf("catalog = %d activities, want 5", len(catalog))
	}
	for _, a := range catalog {
		if a.Activity == "generic" && a.CountsReps {
			t.Error("generic activity reports rep counting")
		}
	}
}
