// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes murmur tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/noteservice"
)

const formatURI = "murmur://interchange-format"

// Server wraps the MCP server with murmur tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all murmur tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Murmur",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search over note titles and content. Results are most recent first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, most recent first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Save a new note. When title is omitted it is derived from the first ten words of content."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body; must not be blank")),
		mcp.WithString("title", mcp.Description("Optional title")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete one note, identified by id or by creation timestamp. Deleting a missing note is not an error."),
		mcp.WithString("id", mcp.Description("Note ID")),
		mcp.WithString("timestamp", mcp.Description("Creation timestamp; the first matching note is removed")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("export_notes",
		mcp.WithDescription("Export every note as CSV. Read the "+formatURI+" resource for the layout."),
	), s.exportNotes)

	s.mcp.AddTool(mcp.NewTool("import_notes",
		mcp.WithDescription("Append notes from CSV text in the interchange format. Returns how many rows were added and skipped."),
		mcp.WithString("csv", mcp.Required(), mcp.Description("CSV text including the header line")),
	), s.importNotes)

	s.mcp.AddTool(mcp.NewTool("encode_share_link",
		mcp.WithDescription("Build a share link that opens the composer prefilled with a title and content."),
		mcp.WithString("title", mcp.Description("Draft title")),
		mcp.WithString("content", mcp.Description("Draft content")),
	), s.encodeShareLink)

	s.mcp.AddTool(mcp.NewTool("decode_share_link",
		mcp.WithDescription("Decode the note parameter of a share link back into a title and content."),
		mcp.WithString("param", mcp.Required(), mcp.Description("Value of the note query parameter")),
	), s.decodeShareLink)

	// Resource: interchange format.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Interchange Format",
			mcp.WithResourceDescription("CSV layout used for export and import, and the share link payload."),
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

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// optionalString returns the named argument, or "" when it is absent.
func optionalString(req mcp.CallToolRequest, name string) string {
	v, err := req.RequireString(name)
	if err != nil {
		return ""
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Query(ctx, query))
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Query(ctx, ""))
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Add(ctx, optionalString(req, "title"), content)
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyContent) {
			return mcp.NewToolResultError("content must not be blank"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := optionalString(req, "id")
	ts := optionalString(req, "timestamp")

	var (
		removed bool
		err     error
	)
	switch {
	case id != "":
		removed, err = s.svc.RemoveByID(ctx, id)
	case ts != "":
		removed, err = s.svc.RemoveByTimestamp(ctx, ts)
	default:
		return mcp.NewToolResultError("either id or timestamp is required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !removed {
		return mcp.NewToolResultText("no matching note"), nil
	}
	return mcp.NewToolResultText("deleted"), nil
}

func (s *Server) exportNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, body, err := s.svc.Export(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNoNotes) {
			return mcp.NewToolResultError("No notes to export."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(body), nil
}

func (s *Server) importNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("csv")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	added, skipped, err := s.svc.Import(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %d, skipped: %d", added, skipped)), nil
}

func (s *Server) encodeShareLink(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := models.Draft{Title: optionalString(req, "title"), Content: optionalString(req, "content")}
	param, err := s.svc.EncodeShareLink(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	link, err := s.svc.ShareURL(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{"param": param, "url": link})
}

func (s *Server) decodeShareLink(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	param, err := req.RequireString("param")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, ok := s.svc.DecodeShareLink(param)
	if !ok {
		return mcp.NewToolResultError("invalid share link"), nil
	}
	return jsonResult(d)
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     InterchangeFormat,
		},
	}, nil
}
