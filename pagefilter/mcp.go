package pagefilter

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/adswap/kit"
)

// RegisterMCP registers the adswap tools on an MCP server.
func (f *Filter) RegisterMCP(srv *mcp.Server) {
	f.registerFilterHTMLTool(srv)
	f.registerSessionsTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type filterHTMLRequest struct {
	HTML string `json:"html"`
	URL  string `json:"url,omitempty"`
}

func (r *filterHTMLRequest) Validate() error {
	if r.HTML == "" {
		return errors.New("html is required")
	}
	return nil
}

func (f *Filter) registerFilterHTMLTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "adswap_filter_html",
		Description: "Replace ad slots in an HTML document with scripture quotations. Returns the rewritten HTML and one entry per replacement.",
		InputSchema: inputSchema(map[string]any{
			"html": map[string]any{"type": "string", "description": "Complete HTML document"},
			"url":  map[string]any{"type": "string", "description": "Page URL, used in reports"},
		}, []string{"html"}),
	}

	kit.RegisterMCPTool(srv, tool, func(ctx context.Context, r *filterHTMLRequest) (any, error) {
		return f.FilterHTML(ctx, r.URL, r.HTML)
	}, kit.WithMCPLogger(f.logger))
}

func (f *Filter) registerSessionsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "adswap_sessions",
		Description: "List filtered pages with their load, scan and replacement counters.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	kit.RegisterMCPTool(srv, tool, func(context.Context, *struct{}) (any, error) {
		return f.Sessions(), nil
	}, kit.WithMCPLogger(f.logger))
}
