package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/repcoach/internal/landmark"
	"github.com/claude/repcoach/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type startSessionRequest struct {
	Activity string `json:"activity"`
}

type startSessionResponse struct {
	ID           string `json:"id"`
	Activity     string `json:"activity"`
	ActivityName string `json:"activityName"`
	StartTime    string `json:"startTime"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Activity == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "activity is required"})
		return
	}

	sess := s.registry.Start(req.Activity)
	snap := sess.Snapshot()
	writeJSON(w, http.StatusCreated, startSessionResponse{
		ID:           snap.ID.String(),
		Activity:     string(snap.Activity),
		ActivityName: snap.ActivityName,
		StartTime:    snap.StartTime.Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleIngestFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}

	var frame landmark.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := sess.Submit(r.Context(), frame)
	if err != nil {
		if err == session.ErrFinalized {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "session already finalized"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Finalize())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.registry.ActivityCatalog(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// sessionFromURL resolves the {id} route parameter, writing the error
// response itself when the ID is malformed or unknown.
func (s *Server) sessionFromURL(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return nil, false
	}
	sess, ok := s.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
