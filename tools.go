package widgetbridge

import (
	"context"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/embedkit/widgetbridge/internal/toolreg"
)

// ToolRegistry is a thread-safe tool table backing a renderer's tool
// callable. Arguments are validated against each tool's schema before
// dispatch.
type ToolRegistry = toolreg.Registry

// ToolHandler executes one tool call with already-validated arguments.
type ToolHandler = toolreg.Handler

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry(log *slog.Logger) *ToolRegistry {
	return toolreg.NewRegistry(log)
}

// SimpleSchema creates a jsonschema.Schema from a simple type map, e.g.
// {"q": "string", "limit": "int"}.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	return toolreg.SimpleSchema(props)
}

// MCPCallable adapts an MCP client session into a renderer tool callable, so
// a host can route widget tool calls to an MCP server.
func MCPCallable(session *mcp.ClientSession) func(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return toolreg.MCPCallable(session)
}
