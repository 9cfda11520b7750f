// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the paper catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/apperr"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/filter"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/models"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/paperservice"
	"github.com/GorkaAbad/Daily-Backdoor-Papers/internal/store"
)

const schemaURI = "papershelf://schema"

// Server wraps the MCP server with the catalog tools.
type Server struct {
	mcp  *server.MCPServer
	svc  *paperservice.Service
	view *filter.View[models.Record]
}

// New creates a new MCP server with all tools registered. The stateful
// view follows every catalog version the service publishes.
func New(svc *paperservice.Service) *Server {
	s := &Server{
		svc:  svc,
		view: filter.NewView(svc.Snapshot().Records),
	}
	svc.Subscribe(func(snap *store.Snapshot) {
		if snap.State == store.StateLoaded {
			s.view.SetCollection(snap.Records)
		}
	})

	s.mcp = server.NewMCPServer(
		"papershelf",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_papers",
		mcp.WithDescription("Filter the paper catalog by title text and facets. "+
			"Facets left empty or set to \"all\" are unconstrained. Does not change the session view."),
		mcp.WithString("query", mcp.Description("Case-insensitive substring of the title")),
		mcp.WithString("year", mcp.Description("Publication year, e.g. 2023")),
		mcp.WithString("type", mcp.Description("Paper type, e.g. conference (proceedings schema only)")),
		mcp.WithString("proceedings", mcp.Description("Venue, e.g. NeurIPS (proceedings schema only)")),
	), s.searchPapers)

	s.mcp.AddTool(mcp.NewTool("list_facets",
		mcp.WithDescription("List the selectable values of every facet. Years are newest first."),
	), s.listFacets)

	s.mcp.AddTool(mcp.NewTool("catalog_status",
		mcp.WithDescription("Report whether the catalog is loaded, its size and the last load error."),
	), s.catalogStatus)

	s.mcp.AddTool(mcp.NewTool("set_filter",
		mcp.WithDescription("Change the session view: set the search text and/or constrain one facet. "+
			"A facet value of \"all\" clears that facet. Returns the updated view."),
		mcp.WithString("search", mcp.Description("New search text; omit to keep the current one")),
		mcp.WithString("facet", mcp.Description("Facet to change: year, type or proceedings")),
		mcp.WithString("value", mcp.Description("Facet value, or all")),
	), s.setFilter)

	s.mcp.AddTool(mcp.NewTool("clear_filters",
		mcp.WithDescription("Reset the session view to the whole catalog."),
	), s.clearFilters)

	s.mcp.AddTool(mcp.NewTool("current_view",
		mcp.WithDescription("Return the session view: active filter, the web page path showing it and the papers it shows."),
	), s.currentView)

	// Resource: catalog record schema.
	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Catalog Record Schema",
			mcp.WithResourceDescription("Fields of a catalog record and how filters match them."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSchemaResource,
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

type viewResult struct {
	Search  string             `json:"search"`
	Filters []filter.Selection `json:"filters"`
	Page    string             `json:"page"`
	Total   int                `json:"total"`
	Matched int                `json:"matched"`
	Papers  []models.Record    `json:"papers"`
}

// pageLink is the path of the web page showing the same view.
func pageLink(f filter.Filter) string {
	if f.Unconstrained() {
		return "/"
	}
	return "/?" + f.Query().Encode()
}

func (s *Server) searchPapers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := filter.Filter{Search: req.GetString("query", "")}
	for _, facet := range []models.Facet{models.FacetYear, models.FacetType, models.FacetProceedings} {
		v, ok := filter.NormalizeSelection(req.GetString(string(facet), ""))
		if !ok {
			continue
		}
		if !s.svc.Schema().HasFacet(facet) {
			return mcp.NewToolResultError(fmt.Sprintf("%s is not filterable in the %s schema", facet, s.svc.Schema())), nil
		}
		f = f.Select(facet, v)
	}

	listing, err := s.svc.List(ctx, f)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(viewResult{
		Search:  f.Search,
		Filters: f.Selections(),
		Page:    pageLink(f),
		Total:   listing.Total,
		Matched: listing.Matched,
		Papers:  listing.Papers,
	})
}

func (s *Server) listFacets(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	facets, err := s.svc.Facets(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(facets)
}

func (s *Server) catalogStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Status(ctx))
}

func (s *Server) setFilter(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	if search, ok := args["search"].(string); ok {
		s.view.SetSearch(search)
	}

	if name := req.GetString("facet", ""); name != "" {
		facet := models.Facet(name)
		if !s.svc.Schema().HasFacet(facet) {
			return mcp.NewToolResultError(fmt.Sprintf("%s is not filterable in the %s schema", name, s.svc.Schema())), nil
		}
		if v, ok := filter.NormalizeSelection(req.GetString("value", "")); ok {
			s.view.Select(facet, v)
		} else {
			s.view.Clear(facet)
		}
	}
	return s.viewResult()
}

func (s *Server) clearFilters(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.view.Reset()
	return s.viewResult()
}

func (s *Server) currentView(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.viewResult()
}

func (s *Server) viewResult() (*mcp.CallToolResult, error) {
	f := s.view.Filter()
	shown := s.view.Shown()
	return jsonResult(viewResult{
		Search:  f.Search,
		Filters: f.Selections(),
		Page:    pageLink(f),
		Total:   s.view.Len(),
		Matched: len(shown),
		Papers:  shown,
	})
}

func (s *Server) readSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "text/markdown",
			Text:     SchemaDocument(s.svc.Schema()),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotLoaded) {
		return mcp.NewToolResultError("catalog not loaded; check catalog_status")
	}
	return mcp.NewToolResultError(err.Error())
}
