package toolreg

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/embedkit/widgetbridge/internal/errors"
)

// MCPCallable adapts an MCP client session into a renderer tool callable,
// so a host can route widget tool calls to an MCP server instead of local
// handlers. Execution errors come back as host errors, matching what the
// response message's error field expects.
func MCPCallable(session *mcp.ClientSession) func(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return func(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		})
		if err != nil {
			return nil, &errors.HostError{Message: err.Error()}
		}

		if result.IsError {
			return nil, &errors.HostError{Message: firstText(result)}
		}

		return resultToMap(result), nil
	}
}

// firstText extracts the first text content block, the conventional slot for
// MCP error descriptions.
func firstText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			return text.Text
		}
	}

	return "tool execution failed"
}

// resultToMap converts an MCP CallToolResult to the wire result payload.
func resultToMap(result *mcp.CallToolResult) map[string]any {
	if result == nil {
		return map[string]any{"content": []map[string]any{}}
	}

	content := make([]map[string]any, 0, len(result.Content))
	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			content = append(content, map[string]any{
				"type": "text",
				"text": v.Text,
			})
		case *mcp.ImageContent:
			content = append(content, map[string]any{
				"type":     "image",
				"data":     v.Data,
				"mimeType": v.MIMEType,
			})
		case *mcp.AudioContent:
			content = append(content, map[string]any{
				"type":     "audio",
				"data":     v.Data,
				"mimeType": v.MIMEType,
			})
		case *mcp.ResourceLink:
			content = append(content, map[string]any{
				"type": "resource_link",
				"uri":  v.URI,
				"name": v.Name,
			})
		case *mcp.EmbeddedResource:
			if v.Resource != nil {
				content = append(content, map[string]any{
					"type": "resource",
					"resource": map[string]any{
						"uri":      v.Resource.URI,
						"mimeType": v.Resource.MIMEType,
						"text":     v.Resource.Text,
					},
				})
			}
		}
	}

	return map[string]any{"content": content}
}
