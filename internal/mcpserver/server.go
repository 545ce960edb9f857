// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the vault conversion tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kenaz-jekyll/internal/apperr"
	"github.com/starford/kenaz-jekyll/internal/converter"
	"github.com/starford/kenaz-jekyll/internal/index"
	"github.com/starford/kenaz-jekyll/internal/models"
	"github.com/starford/kenaz-jekyll/internal/parser"
	"github.com/starford/kenaz-jekyll/internal/slug"
	"github.com/starford/kenaz-jekyll/internal/storage"
)

const postFormatURI = "jekyll://post-format"

// Pipeline is the part of the converter the tools drive.
type Pipeline interface {
	Run(ctx context.Context) (converter.Stats, error)
	Preview(ctx context.Context, rel string) (models.Post, error)
}

// Server wraps the MCP server with conversion tools.
type Server struct {
	mcp      *server.MCPServer
	pipeline Pipeline
	index    index.PostIndex
	logger   *slog.Logger
}

// New creates a new MCP server with all tools registered. idx may be nil when
// the post index is disabled.
func New(pipeline Pipeline, idx index.PostIndex, logger *slog.Logger) *Server {
	s := &Server{pipeline: pipeline, index: idx, logger: logger}

	s.mcp = server.NewMCPServer(
		"kenaz-jekyll",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_vault",
		mcp.WithDescription("Convert changed vault notes into Jekyll posts and update the change cache. "+
			"Returns the number of converted, skipped and failed notes."),
	), s.convertVault)

	s.mcp.AddTool(mcp.NewTool("preview_note",
		mcp.WithDescription("Render the Jekyll post for one note without writing anything."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note relative to the vault (e.g. daily/note.md)")),
	), s.previewNote)

	s.mcp.AddTool(mcp.NewTool("derive_filename",
		mcp.WithDescription("Return the post filename (without .md) a note with this title and date would get."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("date", mcp.Required(), mcp.Description("YYYY-MM-DD or a 만든 날짜 value such as 2025년 3월 19일 0시 57분")),
	), s.deriveFilename)

	s.mcp.AddTool(mcp.NewTool("unresolved_links",
		mcp.WithDescription("List wiki links whose target title matched no note during the last conversions. "+
			"Requires the post index."),
	), s.unresolvedLinks)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List converted posts recorded in the post index. Requires the post index."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns how notes map to Jekyll posts: filename, front matter and link rules."),
	), s.getPostContract)

	s.mcp.AddResource(
		mcp.NewResource(postFormatURI, "Post Format",
			mcp.WithResourceDescription("How vault notes are converted into Jekyll posts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
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

func (s *Server) convertVault(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.pipeline.Run(ctx)
	if err != nil {
		s.logger.Warn("mcp: convert_vault failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) previewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.pipeline.Preview(ctx, path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s%s\n\n%s", post.Filename, storage.MarkdownExt, post.Content)), nil
}

func (s *Server) deriveFilename(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date, ok := parser.ParseCreated(raw)
	if !ok {
		date, ok = parser.DateValue(map[string]any{"date": raw})
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unrecognised date: %q", raw)), nil
	}
	return mcp.NewToolResultText(slug.Filename(title, date)), nil
}

func (s *Server) unresolvedLinks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.index == nil {
		return mcp.NewToolResultError(apperr.ErrIndexDisabled.Error()), nil
	}
	rows, err := s.index.UnresolvedLinks()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no unresolved links"), nil
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s\t[[%s]]\t%s", r.Source, r.Target, r.Destination))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listPosts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.index == nil {
		return mcp.NewToolResultError(apperr.ErrIndexDisabled.Error()), nil
	}
	posts, err := s.index.Posts()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type item struct {
		Filename string   `json:"filename"`
		Title    string   `json:"title"`
		Date     string   `json:"date"`
		Tags     []string `json:"tags"`
	}
	items := make([]item, 0, len(posts))
	for _, p := range posts {
		items = append(items, item{Filename: p.Filename, Title: p.Title, Date: p.Date, Tags: p.Tags})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPostContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      postFormatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
