package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"whiteboard/internal/store"
)

// Server is the MCP server for the whiteboard. It exposes the diagram
// operations as tools so AI agents can read and edit pages.
type Server struct {
	mcp   *server.MCPServer
	store *store.Store
}

// New creates and configures a new MCP server with all tools registered.
func New(st *store.Store) *Server {
	s := &Server{store: st}

	s.mcp = server.NewMCPServer(
		"whiteboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerPageTools()
	s.registerDiagramTools()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// requireString extracts a required string argument.
func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// requireNumber extracts a required numeric argument.
func requireNumber(args map[string]any, key string) (float64, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func boolPtr(v bool) *bool { return &v }
