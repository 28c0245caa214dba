package probe

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/viewport/kit"
)

// RegisterMCP registers the probe tools on an MCP server.
func (p *Prober) RegisterMCP(srv *mcp.Server) {
	p.registerProbeTool(srv)
	p.registerPresetsTool(srv)
}

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

// --- probe ---

func (p *Prober) registerProbeTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "viewport_probe",
		Description: "Load a page in headless Chrome, resize it across a list of widths and report " +
			"which responsive breakpoint its CSS activates at each width.",
		InputSchema: inputSchema(map[string]any{
			"url":     map[string]any{"type": "string", "description": "Page URL"},
			"page_id": map[string]any{"type": "string", "description": "Stable page identifier"},
			"preset":  map[string]any{"type": "string", "description": "Breakpoint preset: bootstrap or foundation"},
			"custom": map[string]any{
				"type":        "array",
				"description": "Custom breakpoints, smallest first; overrides preset",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":   map[string]any{"type": "string"},
						"marker": map[string]any{"type": "string", "description": "Class list or single element HTML"},
					},
					"required": []string{"name", "marker"},
				},
			},
			"widths": map[string]any{
				"type":        "array",
				"description": "Viewport widths in CSS pixels",
				"items":       map[string]any{"type": "integer"},
			},
			"height": map[string]any{"type": "integer", "description": "Viewport height in CSS pixels"},
			"queries": map[string]any{
				"type":        "array",
				"description": "Expressions to evaluate at each width, e.g. \"<=sm\" or \"md\"",
				"items":       map[string]any{"type": "string"},
			},
		}, []string{"url"}),
	}

	kit.RegisterMCPTool(srv, tool, p.probeEndpoint(), kit.DecodeJSON[Request]())
}

// --- presets ---

func (p *Prober) registerPresetsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "viewport_presets",
		Description: "List the built-in breakpoint presets and their markers.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, presetsEndpoint, decode)
}
