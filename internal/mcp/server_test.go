package mcp

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/repcoach/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("result content type %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func testHandlers(t *testing.T) (*handlers, *session.Registry) {
	t.Helper()
	r := session.NewRegistry(session.Options{Log: slog.Default()}, slog.Default())
	return &handlers{ds: r, log: slog.Default()}, r
}

// TestListSessionsTool verifies the list_sessions tool returns the started
// session as JSON.
func TestListSessionsTool(t *testing.T) {
	h, r := testHandlers(t)
	s := r.Start("squat")
	t.Cleanup(func() { s.Finalize() })

	res, err := h.listSessions(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, s.ID.String()) {
		t.Errorf("result does not mention the session ID: %s", text)
	}
}

// TestGetSessionToolRequiresID verifies the session_id parameter is
// enforced and unknown IDs are reported as tool errors, not Go errors.
func TestGetSessionToolRequiresID(t *testing.T) {
	h, _ := testHandlers(t)

	res, err := h.getSession(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Error("missing session_id did not produce a tool error")
	}

	res, err = h.getSession(context.Background(), toolRequest(map[string]any{"session_id": "not-a-uuid"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Error("malformed session_id did not produce a tool error")
	}
}

// TestGetSessionTool verifies a started session round-trips through the
// get_session tool.
func TestGetSessionTool(t *testing.T) {
	h, r := testHandlers(t)
	s := r.Start("golf swing")
	t.Cleanup(func() { s.Finalize() })

	res, err := h.getSession(context.Background(), toolRequest(map[string]any{"session_id": s.ID.String()}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "golf_swing") {
		t.Errorf("result missing the activity: %s", text)
	}
}

// TestActivityCatalogTool verifies the catalog tool lists every activity.
func TestActivityCatalogTool(t *testing.T) {
	h, _ := testHandlers(t)
	res, err := h.getActivityCatalog(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, res)
	for _, want := range []string{"squat", "jumping_jacks", "pushup", "golf_swing", "generic"} {
		if !strings.Contains(text, want) {
			t.Errorf("catalog missing %q", want)
		}
	}
}
