// Package mcp exposes graph rendering and the spec store over the Model
// Context Protocol, so agents can render and inspect graphs without the
// live console.
package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teranos/QVIZ/am"
	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/layout"
	"github.com/teranos/QVIZ/render"
	"github.com/teranos/QVIZ/store"
	"github.com/teranos/QVIZ/version"
)

// Default render dimensions for tool output when the caller gives none
const (
	defaultRenderWidth  = 1440.0
	defaultRenderHeight = 900.0
	settleSteps         = 1000
)

// Server wraps the spec store and render pipeline behind MCP tools
type Server struct {
	specStore *store.Store
	cfg       *am.Config
	server    *mcpserver.MCPServer
}

// NewServer creates an MCP server over an open database
func NewServer(db *sql.DB, cfg *am.Config) *Server {
	s := &Server{
		specStore: store.NewStore(db),
		cfg:       cfg,
	}

	s.server = mcpserver.NewMCPServer(
		"qviz",
		version.Get().Version,
		mcpserver.WithToolCapabilities(true),
	)
	s.registerTools()

	return s
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	renderTool := mcp.NewTool("graph_render",
		mcp.WithDescription("Render a graph spec (JSON or YAML) to an SVG or PNG file on disk"),
		mcp.WithString("spec",
			mcp.Required(),
			mcp.Description("Graph spec as JSON or YAML"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Output file path; extension does not need to match format"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: svg (default) or png"),
		),
		mcp.WithNumber("scale",
			mcp.Description("PNG raster multiplier (default from config)"),
		),
	)
	s.server.AddTool(renderTool, s.handleRender)

	statsTool := mcp.NewTool("graph_stats",
		mcp.WithDescription("Summarize a graph spec: node and edge counts, node types, center node"),
		mcp.WithString("spec",
			mcp.Required(),
			mcp.Description("Graph spec as JSON or YAML"),
		),
	)
	s.server.AddTool(statsTool, s.handleStats)

	searchTool := mcp.NewTool("graph_search",
		mcp.WithDescription("Find nodes in a graph spec matching a query against id, name, or type"),
		mcp.WithString("spec",
			mcp.Required(),
			mcp.Description("Graph spec as JSON or YAML"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Case-insensitive substring to match"),
		),
	)
	s.server.AddTool(searchTool, s.handleSearch)

	saveTool := mcp.NewTool("spec_save",
		mcp.WithDescription("Save a graph spec to the store and return its share slug"),
		mcp.WithString("spec",
			mcp.Required(),
			mcp.Description("Graph spec as JSON or YAML"),
		),
	)
	s.server.AddTool(saveTool, s.handleSave)

	loadTool := mcp.NewTool("spec_load",
		mcp.WithDescription("Load a saved graph spec by its share slug"),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Share slug returned by spec_save"),
		),
	)
	s.server.AddTool(loadTool, s.handleLoad)
}

// requireSpec parses the spec argument shared by most tools
func requireSpec(request mcp.CallToolRequest) (*graph.Spec, *mcp.CallToolResult) {
	raw, err := request.RequireString("spec")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	spec, err := graph.DecodeSpec([]byte(raw))
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to parse spec: %v", err))
	}
	return spec, nil
}

// handleRender handles graph_render tool calls
func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, errResult := requireSpec(request)
	if errResult != nil {
		return errResult, nil
	}

	output, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := request.GetString("format", "svg")
	scale := request.GetInt("scale", s.cfg.Export.Scale)

	size := render.Size{Width: defaultRenderWidth, Height: defaultRenderHeight}
	sim := layout.NewSimulation(spec, layout.FullProfile(), size.Width, size.Height, s.cfg.Layout.Seed)
	frame := sim.Settle(settleSteps)
	scene := render.BuildScene(spec, frame, render.View{}, render.VariantSplit, size)

	var data []byte
	switch format {
	case "svg":
		var sb strings.Builder
		if err := render.WriteSVG(&sb, scene); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to render SVG: %v", err)), nil
		}
		data = []byte(sb.String())
	case "png":
		data, err = render.ExportPNG(scene, scale)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to render PNG: %v", err)), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unsupported format %q (want svg or png)", format)), nil
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create output directory: %v", err)), nil
		}
	}
	if err := os.WriteFile(output, data, am.DefaultFilePermissions); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to write %s: %v", output, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Rendered %s to %s (%d bytes)", spec.Summary(), output, len(data))), nil
}

// handleStats handles graph_stats tool calls
func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, errResult := requireSpec(request)
	if errResult != nil {
		return errResult, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", spec.Summary())
	if spec.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", spec.Title)
	}
	if center := spec.CenterNode(); center != nil {
		fmt.Fprintf(&b, "Center: %s (%s)\n", center.Name, center.ID)
	}

	typeCounts := make(map[string]int)
	for _, node := range spec.Nodes {
		typeCounts[node.Type]++
	}
	types := make([]string, 0, len(typeCounts))
	for t := range typeCounts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(&b, "  %s: %d\n", t, typeCounts[t])
	}

	return mcp.NewToolResultText(b.String()), nil
}

// handleSearch handles graph_search tool calls
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, errResult := requireSpec(request)
	if errResult != nil {
		return errResult, nil
	}

	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches := spec.SearchMatches(query)
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No nodes match %q", query)), nil
	}

	ids := make([]string, 0, len(matches))
	for id := range matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d node(s) matching %q:\n", len(ids), query)
	for _, id := range ids {
		node := spec.NodeByID(id)
		if node == nil {
			continue
		}
		fmt.Fprintf(&b, "  %s (%s, type %s)\n", node.Name, node.ID, node.Type)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// handleSave handles spec_save tool calls
func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spec, errResult := requireSpec(request)
	if errResult != nil {
		return errResult, nil
	}

	rec, err := s.specStore.Save(ctx, spec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save spec: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved %s as %s", spec.Summary(), rec.Slug)), nil
}

// handleLoad handles spec_load tool calls
func (s *Server) handleLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := request.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	spec, _, err := s.specStore.GetBySlug(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load spec %q: %v", slug, err)), nil
	}

	payload, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode spec: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// Serve starts the MCP server using stdio transport
func (s *Server) Serve() error {
	return mcpserver.ServeStdio(s.server)
}
