package api

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/navwatch/kit"
)

// RegisterMCP registers the navwatch tools on an MCP server.
func (s *Server) RegisterMCP(srv *mcp.Server) {
	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "navwatch_location",
		Description: "Return the current navigation snapshot (pathname, search, state) of the observed page.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, s.location, kit.DecodeArgs[struct{}])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "navwatch_push",
		Description: "Push a new history entry on the observed page, like history.pushState(state, '', path).",
		InputSchema: inputSchema(map[string]any{
			"path":  map[string]any{"type": "string", "description": "Target path, may include a query string"},
			"state": map[string]any{"description": "Arbitrary JSON state attached to the entry"},
		}, []string{"path"}),
	}, s.push, kit.DecodeArgs[PushRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "navwatch_stats",
		Description: "Return observer counters: subscribers, polling, ticks, changes, errors, notifications.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, s.stats, kit.DecodeArgs[struct{}])

	if s.recent != nil {
		kit.RegisterMCPTool(srv, &mcp.Tool{
			Name:        "navwatch_history",
			Description: "Return recently recorded navigation events, newest first.",
			InputSchema: inputSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "description": "Maximum number of events (default 50)"},
			}, nil),
		}, s.recent, kit.DecodeArgs[HistoryRequest])
	}
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
