// Package mcp exposes coaching-session data to assistants over the Model
// Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepCoach live coaching server. Query coaching sessions, completed reps with form scores, and the accepted coaching-cue log. Session IDs come from list_sessions."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetSessionReps, Handler: h.getSessionReps},
		server.ServerTool{Tool: toolGetSessionCues, Handler: h.getSessionCues},
		server.ServerTool{Tool: toolGetActivityCatalog, Handler: h.getActivityCatalog},
	)

	s.AddResources(
		server.ServerResource{Resource: resActivityCatalog, Handler: h.activityCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resActivityCatalog = mcp.NewResource(
	"repcoach://activity_catalog",
	"Activity Catalog",
	mcp.WithResourceDescription("All supported activities with their phase enums, initial phases, and whether reps are counted"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) activityCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog, err := h.ds.ActivityCatalog(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
