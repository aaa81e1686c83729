// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the document corpus to editor agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// listLimit bounds the list_docs query; the corpus is small.
const listLimit = 500

// Server wraps the MCP server with the Ansuz tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *docservice.Service
	static storage.Provider
}

// New creates an MCP server with all tools registered. static is the asset
// tree upload_asset writes into.
func New(svc *docservice.Service, static storage.Provider) *Server {
	s := &Server{svc: svc, static: static}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_docs",
		mcp.WithDescription("List every document path in the corpus, drafts included."),
		mcp.WithString("folder", mcp.Description("Optional folder prefix to filter by (empty for all)")),
	), s.listDocs)

	s.mcp.AddTool(mcp.NewTool("read_doc",
		mcp.WithDescription("Read the full content of a Markdown document, front matter included."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. workshop/page.md)")),
	), s.readDoc)

	s.mcp.AddTool(mcp.NewTool("create_doc",
		mcp.WithDescription("Create a new Markdown document at the specified path. "+
			"Content MUST carry valid YAML front matter with title, date, and summary. "+
			"Read the contract first via the get_authoring_contract tool or the "+
			"ansuz://authoring-contract resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new document (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the authoring contract")),
	), s.createDoc)

	s.mcp.AddTool(mcp.NewTool("search_docs",
		mcp.WithDescription("Full-text search through document content, titles, and summaries."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocs)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("check_doc",
		mcp.WithDescription("Check one document against the authoring contract. Returns lint findings as JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to check")),
	), s.checkDoc)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Fetch an image from an http(s) or data: URL and store it under the "+
			"static root. Returns the Markdown image reference to paste into a document."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Source URL (http, https, or base64 data URI)")),
		mcp.WithString("filename", mcp.Description("Optional filename override (extension decides the format)")),
	), s.uploadAsset)

	s.mcp.AddTool(mcp.NewTool("get_authoring_contract",
		mcp.WithDescription("Returns the authoring contract: front-matter schema, link and "+
			"fence rules. Call this before creating documents."),
	), s.getAuthoringContract)

	// Resource: the same contract document.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://authoring-contract", "Authoring Contract",
			mcp.WithResourceDescription("Document format every page in the corpus must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func (s *Server) listDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.TrimSuffix(f, "/")
	}

	docs, _, err := s.svc.List(ctx, index.ListQuery{Limit: listLimit, Drafts: true, Sort: "path"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, d := range docs {
		if folder != "" && !strings.HasPrefix(d.Path, folder+"/") {
			continue
		}
		paths = append(paths, d.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Get(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) createDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Agents must produce contract-clean front matter; reject before writing.
	res, err := parser.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.HasFrontmatter {
		return mcp.NewToolResultError("content must start with a YAML front-matter block; see ansuz://authoring-contract"), nil
	}
	if res.FrontmatterErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("front matter is not valid YAML: %v", res.FrontmatterErr)), nil
	}
	if err := res.Meta.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("front matter incomplete: %v", err)), nil
	}

	if _, err := s.svc.Create(ctx, path, []byte(content)); err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			return mcp.NewToolResultError(fmt.Sprintf("document already exists: %s", path)), nil
		default:
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) searchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) checkDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	findings, err := s.svc.Check(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(findings, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getAuthoringContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AuthoringContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://authoring-contract",
			MIMEType: "text/markdown",
			Text:     AuthoringContract,
		},
	}, nil
}
