// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the roundup workflow to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/roundup/internal/apperr"
	"github.com/starford/roundup/internal/workflow"
)

const canonicalFormatURI = "roundup://canonical-format"

// Server wraps the MCP server with roundup tools.
type Server struct {
	mcp *server.MCPServer
	svc *workflow.Service
}

// New creates a new MCP server with all roundup tools registered.
func New(svc *workflow.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"roundup",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List uploaded chat logs with their workflow step and round count."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("upload_chat_log",
		mcp.WithDescription("Upload a raw chat log. Content identical to an existing "+
			"document returns that document instead of creating a new one."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Display name, e.g. session-03.txt")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw exported chat text")),
		mcp.WithString("content_type", mcp.Description("text/plain, text/markdown or application/json (default: from filename)")),
	), s.uploadChatLog)

	s.mcp.AddTool(mcp.NewTool("clean_chat_log",
		mcp.WithDescription("Normalize a document into canonical tagged text and return it. "+
			"See get_canonical_format or the roundup://canonical-format resource."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document ID")),
	), s.cleanChatLog)

	s.mcp.AddTool(mcp.NewTool("parse_rounds",
		mcp.WithDescription("Segment the cleaned text of a document into rounds, replacing any stored rounds."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document ID")),
	), s.parseRounds)

	s.mcp.AddTool(mcp.NewTool("list_rounds",
		mcp.WithDescription("List the stored rounds of a document in order."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document ID")),
	), s.listRounds)

	s.mcp.AddTool(mcp.NewTool("search_rounds",
		mcp.WithDescription("Search round content across all documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchRounds)

	s.mcp.AddTool(mcp.NewTool("get_canonical_format",
		mcp.WithDescription("Returns the canonical transcript format the round parser expects."),
	), s.getCanonicalFormat)

	s.mcp.AddResource(
		mcp.NewResource(canonicalFormatURI, "Canonical Transcript Format",
			mcp.WithResourceDescription("Tagged transcript format produced by cleaning and read by the round parser."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCanonicalFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(id string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	case errors.Is(err, apperr.ErrPrecondition):
		return mcp.NewToolResultError(fmt.Sprintf("document %s has not been cleaned yet; call clean_chat_log first", id))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.svc.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(docs)
}

func (s *Server) uploadChatLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, created, err := s.svc.Upload(ctx, filename, []byte(content), req.GetString("content_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"id":           doc.ID,
		"filename":     doc.Filename,
		"content_type": doc.ContentType,
		"size":         doc.Size,
		"hash":         doc.Hash,
		"created":      created,
	})
}

func (s *Server) cleanChatLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Clean(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(doc.CleanedContent), nil
}

func (s *Server) parseRounds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ParseRounds(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(res)
}

func (s *Server) listRounds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := s.svc.ListRounds(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(list)
}

func (s *Server) searchRounds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchRounds(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getCanonicalFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CanonicalFormat), nil
}

func (s *Server) readCanonicalFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      canonicalFormatURI,
			MIMEType: "text/markdown",
			Text:     CanonicalFormat,
		},
	}, nil
}
