package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/sislog/internal/docstore"
	"github.com/starford/sislog/internal/gateway"
	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/remotesync"
	"github.com/starford/sislog/internal/state"
	"github.com/starford/sislog/internal/testutil"
)

type fixedClock struct{}

func (fixedClock) Current() string       { return "02:00:00:15" }
func (fixedClock) Mode() state.ClockMode { return state.ModeManual }

func testServer(t *testing.T) (*Server, *state.Store, *docstore.Store) {
	t.Helper()
	docs := testutil.TestDocStore(t)
	st := testutil.TestStateStore(t)

	adapter := remotesync.New(docs, st, remotesync.WithLogger(testutil.Logger()))
	if err := adapter.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(adapter.Stop)

	gw := gateway.NewService(docs, gateway.WithCreatedBy("mcp"), gateway.WithLogger(testutil.Logger()))
	return New(st, gw, fixedClock{}), st, docs
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_log_entries":
		result, err = srv.listLogEntries(ctx, req)
	case "add_log_entry":
		result, err = srv.addLogEntry(ctx, req)
	case "update_log_entry_notes":
		result, err = srv.updateLogEntryNotes(ctx, req)
	case "delete_log_entry":
		result, err = srv.deleteLogEntry(ctx, req)
	case "get_timecode":
		result, err = srv.getTimecode(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func waitEntries(t *testing.T, st *state.Store, n int) {
	t.Helper()
	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return len(st.Snapshot().LogEntries) == n
	}, "log entries not synchronised")
}

func TestAddAndListLogEntries(t *testing.T) {
	srv, st, docs := testServer(t)
	if err := docs.Set(context.Background(), models.CollectionParticipants, "p1", map[string]any{"name": "Alex"}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "add_log_entry", map[string]any{
		"notes":        "  Enters the pool  ",
		"participants": "p1, ghost",
		"location":     "l1",
	})
	if r.IsError || !strings.HasSuffix(resultText(r), "at 02:00:00:15") {
		t.Fatalf("add result = %q", resultText(r))
	}
	waitEntries(t, st, 1)
	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return len(st.Snapshot().Participants) == 1
	}, "participants not synchronised")

	r = callTool(t, srv, "list_log_entries", map[string]any{"search": "pool"})
	var rows []map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &rows); err != nil {
		t.Fatalf("list output: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0]["notes"] != "Enters the pool" || rows[0]["participants"] != "Alex" || rows[0]["location"] != "Unknown" {
		t.Errorf("row = %v", rows[0])
	}
	if rows[0]["createdBy"] != "mcp" {
		t.Errorf("createdBy = %v", rows[0]["createdBy"])
	}
}

func TestAddLogEntryRejects(t *testing.T) {
	srv, _, _ := testServer(t)

	for name, args := range map[string]map[string]any{
		"missing notes": {},
		"blank notes":   {"notes": "   "},
		"bad timecode":  {"notes": "x", "timecode": "25:61:00:00"},
	} {
		if r := callTool(t, srv, "add_log_entry", args); !r.IsError {
			t.Errorf("%s: expected error, got %q", name, resultText(r))
		}
	}
}

func TestListLimit(t *testing.T) {
	srv, st, _ := testServer(t)
	for range 3 {
		callTool(t, srv, "add_log_entry", map[string]any{"notes": "n"})
	}
	waitEntries(t, st, 3)

	r := callTool(t, srv, "list_log_entries", map[string]any{"limit": 2})
	var rows []map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	srv, st, _ := testServer(t)
	callTool(t, srv, "add_log_entry", map[string]any{"notes": "old"})
	waitEntries(t, st, 1)
	id := st.Snapshot().LogEntries[0].ID

	r := callTool(t, srv, "update_log_entry_notes", map[string]any{"id": id, "notes": "new"})
	if r.IsError {
		t.Fatalf("update: %q", resultText(r))
	}
	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		entries := st.Snapshot().LogEntries
		return len(entries) == 1 && entries[0].Notes == "new"
	}, "update not synchronised")

	r = callTool(t, srv, "update_log_entry_notes", map[string]any{"id": "ghost", "notes": "x"})
	if !r.IsError || resultText(r) != "not found: ghost" {
		t.Errorf("update missing = %q", resultText(r))
	}

	r = callTool(t, srv, "delete_log_entry", map[string]any{"id": id})
	if r.IsError {
		t.Fatalf("delete: %q", resultText(r))
	}
	waitEntries(t, st, 0)

	r = callTool(t, srv, "delete_log_entry", map[string]any{"id": id})
	if r.IsError {
		t.Errorf("second delete should succeed: %q", resultText(r))
	}
}

func TestGetTimecode(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_timecode", nil)
	if got := resultText(r); got != `{"mode":"MANUAL","timecode":"02:00:00:15"}` {
		t.Errorf("get_timecode = %q", got)
	}
}

func TestFormatResource(t *testing.T) {
	srv, _, _ := testServer(t)
	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok || !strings.Contains(text.Text, "HH:MM:SS:FF") {
		t.Errorf("unexpected resource contents: %+v", contents)
	}
}
