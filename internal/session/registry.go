package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/claude/repcoach/internal/cue"
	"github.com/claude/repcoach/internal/engine"
	"github.com/google/uuid"
)

// Summary is the listing view of a session.
type Summary struct {
	ID               uuid.UUID       `json:"id"`
	Activity         engine.Activity `json:"activity"`
	ActivityName     string          `json:"activityName"`
	StartTime        time.Time       `json:"startTime"`
	EndTime          time.Time       `json:"endTime,omitzero"`
	TotalReps        int             `json:"totalReps"`
	AverageFormScore float64         `json:"averageFormScore"`
	Finalized        bool            `json:"finalized"`
}

// Registry holds every session started in this process. Sessions are
// independent: starting a new one never disturbs the others.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	opts     Options
	log      *slog.Logger
}

// NewRegistry creates a registry whose sessions share the given external
// capabilities.
func NewRegistry(opts Options, log *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		opts:     opts,
		log:      log,
	}
}

// Start creates and registers a session for the named activity.
func (r *Registry) Start(activityName string) *Session {
	s := New(activityName, r.opts)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.log.Info("session started", "id", s.ID, "activity", string(s.Activity()), "name", activityName)
	return s
}

// Get looks a session up by ID.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns summaries of every session, newest first.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		snap := s.Snapshot()
		out = append(out, Summary{
			ID:               snap.ID,
			Activity:         snap.Activity,
			ActivityName:     snap.ActivityName,
			StartTime:        snap.StartTime,
			EndTime:          snap.EndTime,
			TotalReps:        snap.TotalReps,
			AverageFormScore: snap.AverageFormScore,
			Finalized:        snap.Finalized,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

// --- mcp.DataSource implementation ---
// The context parameters exist for the DataSource contract; local lookups
// never block on I/O.

// ListSessions satisfies the MCP data source.
func (r *Registry) ListSessions(_ context.Context) ([]Summary, error) {
	return r.List(), nil
}

// GetSession satisfies the MCP data source.
func (r *Registry) GetSession(_ context.Context, id string) (*CoachingSession, error) {
	s, err := r.byID(id)
	if err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	return &snap, nil
}

// GetSessionReps satisfies the MCP data source.
func (r *Registry) GetSessionReps(_ context.Context, id string) ([]RepRecord, error) {
	s, err := r.byID(id)
	if err != nil {
		return nil, err
	}
	return s.Snapshot().Reps, nil
}

// GetSessionCues satisfies the MCP data source.
func (r *Registry) GetSessionCues(_ context.Context, id string) ([]cue.Cue, error) {
	s, err := r.byID(id)
	if err != nil {
		return nil, err
	}
	return s.Snapshot().Cues, nil
}

// ActivityCatalog satisfies the MCP data source.
func (r *Registry) ActivityCatalog(_ context.Context) ([]engine.Info, error) {
	return engine.Catalog(), nil
}

func (r *Registry) byID(id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("registry: invalid session id %q: %w", id, err)
	}
	s, ok := r.Get(parsed)
	if !ok {
		return nil, fmt.Errorf("registry: session %s not found", id)
	}
	return s, nil
}
