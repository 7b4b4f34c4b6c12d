package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List all coaching sessions in this process, newest first. Returns session IDs, activities, rep totals, average form scores, and whether each session is finalized."),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get one coaching session in full: every completed rep, the accepted coaching-cue log, timing, and aggregates."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID from list_sessions")),
)

var toolGetSessionReps = mcp.NewTool("get_session_reps",
	mcp.WithDescription("Get the completed repetitions of a session in order: rep number, start/end time, form score (0-100), phase transitions, and the cues emitted during each rep."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID from list_sessions")),
)

var toolGetSessionCues = mcp.NewTool("get_session_cues",
	mcp.WithDescription("Get a session's accepted coaching cues in acceptance order. Each cue has a message, a type (good/warning/tip/rep_complete), and a timestamp."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID from list_sessions")),
)

var toolGetActivityCatalog = mcp.NewTool("get_activity_catalog",
	mcp.WithDescription("List the supported activities with their phase enums and whether reps are counted."),
)

// --- Tool handlers ---

func (h *handlers) listSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.ds.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sessions)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	sess, err := h.ds.GetSession(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sess)
}

func (h *handlers) getSessionReps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	reps, err := h.ds.GetSessionReps(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(reps)
}

func (h *handlers) getSessionCues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	cues, err := h.ds.GetSessionCues(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cues)
}

func (h *handlers) getActivityCatalog(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog, err := h.ds.ActivityCatalog(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(catalog)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encoding result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
