// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes sislog log entry tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sislog/internal/apperr"
	"github.com/starford/sislog/internal/feed"
	"github.com/starford/sislog/internal/gateway"
	"github.com/starford/sislog/internal/state"
	"github.com/starford/sislog/internal/timecode"
)

const formatURI = "sislog://log-entry-format"

// StateReader gives read access to the synchronised state.
type StateReader interface {
	Snapshot() state.AppState
}

// Gateway performs log entry writes. *gateway.Service satisfies it.
type Gateway interface {
	AddLogEntry(ctx context.Context, e gateway.NewLogEntry) (string, error)
	UpdateLogEntry(ctx context.Context, id string, patch gateway.LogEntryPatch) error
	DeleteLogEntry(ctx context.Context, id string) error
}

// TimecodeSource reports the running timecode. *clockengine.Engine
// satisfies it.
type TimecodeSource interface {
	Current() string
	Mode() state.ClockMode
}

// Server wraps the MCP server with sislog tools.
type Server struct {
	mcp     *server.MCPServer
	state   StateReader
	gateway Gateway
	clock   TimecodeSource
}

// New creates a new MCP server with all sislog tools registered.
func New(st StateReader, gw Gateway, clock TimecodeSource) *Server {
	s := &Server{state: st, gateway: gw, clock: clock}

	s.mcp = server.NewMCPServer(
		"sislog",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_log_entries",
		mcp.WithDescription("List log entries newest first, with participant, location, "+
			"action and tag ids replaced by names."),
		mcp.WithString("search", mcp.Description("Case-insensitive text matched against notes and participant names")),
		mcp.WithString("participant", mcp.Description("Only entries with this participant id")),
		mcp.WithString("location", mcp.Description("Only entries at this location id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries (default 50)")),
	), s.listLogEntries)

	s.mcp.AddTool(mcp.NewTool("add_log_entry",
		mcp.WithDescription("Add a log entry. Read the field rules first via the "+
			formatURI+" resource."),
		mcp.WithString("notes", mcp.Required(), mcp.Description("What happened; must not be blank")),
		mcp.WithString("timecode", mcp.Description("HH:MM:SS:FF at 30 fps; defaults to the running clock")),
		mcp.WithString("participants", mcp.Description("Comma-separated participant ids")),
		mcp.WithString("location", mcp.Description("Location id")),
		mcp.WithString("action_category", mcp.Description("Action category id")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag ids")),
	), s.addLogEntry)

	s.mcp.AddTool(mcp.NewTool("update_log_entry_notes",
		mcp.WithDescription("Replace the notes of an existing log entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Log entry id")),
		mcp.WithString("notes", mcp.Required(), mcp.Description("New notes; must not be blank")),
	), s.updateLogEntryNotes)

	s.mcp.AddTool(mcp.NewTool("delete_log_entry",
		mcp.WithDescription("Delete one log entry. Deleting a missing entry succeeds."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Log entry id")),
	), s.deleteLogEntry)

	s.mcp.AddTool(mcp.NewTool("get_timecode",
		mcp.WithDescription("Return the running production timecode and the clock mode (AUTO or MANUAL)."),
	), s.getTimecode)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Log Entry Format",
			mcp.WithResourceDescription("Fields and rules for sislog log entries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Serve speaks MCP over in and out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listLogEntries(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 50)
	if limit <= 0 {
		limit = 50
	}
	snap := s.state.Snapshot()
	entries := feed.Query(snap, feed.Filter{
		Search:      req.GetString("search", ""),
		Participant: req.GetString("participant", ""),
		Location:    req.GetString("location", ""),
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	rows := make([]feed.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, feed.Resolve(snap, e))
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addLogEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := req.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return mcp.NewToolResultError("notes cannot be empty"), nil
	}
	tc := req.GetString("timecode", "")
	if tc == "" {
		tc = s.clock.Current()
	} else if err := timecode.Validate(tc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := s.gateway.AddLogEntry(ctx, gateway.NewLogEntry{
		Timecode:       tc,
		Participants:   splitIDs(req.GetString("participants", "")),
		Location:       req.GetString("location", ""),
		ActionCategory: req.GetString("action_category", ""),
		Tags:           splitIDs(req.GetString("tags", "")),
		Notes:          notes,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s at %s", id, tc)), nil
}

func (s *Server) updateLogEntryNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := req.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return mcp.NewToolResultError("notes cannot be empty"), nil
	}
	if err := s.gateway.UpdateLogEntry(ctx, id, gateway.LogEntryPatch{Notes: &notes}); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", id)), nil
}

func (s *Server) deleteLogEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.gateway.DeleteLogEntry(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getTimecode(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.Marshal(map[string]string{
		"timecode": s.clock.Current(),
		"mode":     string(s.clock.Mode()),
	})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     LogEntryFormat,
		},
	}, nil
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}
