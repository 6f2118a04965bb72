package repli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/repli/kit"
	"github.com/hazyhaar/repli/settings"
)

// RegisterMCP registers the agent's control tools on an MCP server.
func (a *Agent) RegisterMCP(srv *mcp.Server) {
	eps := a.endpoints()

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "repli_activate",
		Description: "Open a page and keep reply triggers injected into it.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL, e.g. https://www.linkedin.com/feed/"},
		}, []string{"url"}),
	}, eps["activate"], kit.DecodeMCP[activateReq]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "repli_deactivate",
		Description: "Stop a page session.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Session id"},
		}, []string{"id"}),
	}, eps["deactivate"], kit.DecodeMCP[sessionReq]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "repli_status",
		Description: "List supported sites and active page sessions.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps["status"], kit.DecodeMCP[struct{}]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "repli_settings_get",
		Description: "Show the completion settings with the API key masked.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps["settings_get"], kit.DecodeMCP[struct{}]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "repli_settings_set",
		Description: "Update completion settings. An empty value clears a setting.",
		InputSchema: inputSchema(map[string]any{
			settings.KeyAPIKey:             map[string]any{"type": "string", "description": "Completion service API key"},
			settings.KeyModel:              map[string]any{"type": "string", "description": "Model name (default " + settings.DefaultModel + ")"},
			settings.KeyCustomInstructions: map[string]any{"type": "string", "description": "Extra instructions appended to every prompt"},
		}, nil),
	}, eps["settings_set"], kit.DecodeMCP[settingsReq]())
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
