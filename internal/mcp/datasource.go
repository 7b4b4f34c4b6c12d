package mcp

import (
	"context"

	"github.com/claude/repcoach/internal/cue"
	"github.com/claude/repcoach/internal/engine"
	"github.com/claude/repcoach/internal/session"
)

// DataSource abstracts the session data layer for MCP tools. Both
// *session.Registry (local, in-process) and HTTPClient (remote via the REST
// API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context) ([]session.Summary, error)
	GetSession(ctx context.Context, id string) (*session.CoachingSession, error)
	GetSessionReps(ctx context.Context, id string) ([]session.RepRecord, error)
	GetSessionCues(ctx context.Context, id string) ([]cue.Cue, error)
	ActivityCatalog(ctx context.Context) ([]engine.Info, error)
}

// Compile-time check: *session.Registry satisfies DataSource.
var _ DataSource = (*session.Registry)(nil)
