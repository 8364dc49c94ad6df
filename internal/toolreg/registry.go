// Package toolreg provides the host-side tool registry backing a renderer's
// tool callable. Tools register with a JSON schema; arguments are validated
// before dispatch. A registry is one way to supply the callable -- any
// function with the right shape works, including an MCP-backed one.
package toolreg

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/embedkit/widgetbridge/internal/errors"
)

// Handler executes one tool call with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

// registeredTool holds tool metadata, its resolved schema, and the handler.
type registeredTool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	resolved    *jsonschema.Resolved
	handler     Handler
}

// Registry is a thread-safe tool table.
type Registry struct {
	log   *slog.Logger
	mu    sync.RWMutex
	tools map[string]*registeredTool
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:   log.With("component", "tool_registry"),
		tools: make(map[string]*registeredTool, 8),
	}
}

// Register adds a tool. The schema is resolved here so a broken schema
// fails at registration, not per call. A nil schema skips validation.
// Registering the same name twice overrides the previous tool.
func (r *Registry) Register(name, description string, schema *jsonschema.Schema, handler Handler) error {
	var resolved *jsonschema.Resolved

	if schema != nil {
		var err error

		resolved, err = schema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("resolve schema for %q: %w", name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Debug("Registering tool", "tool", name)
	r.tools[name] = &registeredTool{
		name:        name,
		description: description,
		schema:      schema,
		resolved:    resolved,
		handler:     handler,
	}

	return nil
}

// List returns metadata for all registered tools.
func (r *Registry) List() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]map[string]any, 0, len(r.tools))
	for _, t := range r.tools {
		entry := map[string]any{
			"name":        t.name,
			"description": t.description,
		}
		if t.schema != nil {
			entry["inputSchema"] = t.schema
		}

		result = append(result, entry)
	}

	return result
}

// Call executes a tool by name. Unknown tools and schema violations surface
// as host errors so they travel back to the widget inside the error field
// of a response message.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	r.mu.RLock()
	t, exists := r.tools[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &errors.HostError{Message: "tool not found: " + name}
	}

	if args == nil {
		args = map[string]any{}
	}

	if t.resolved != nil {
		if err := t.resolved.Validate(args); err != nil {
			r.log.Warn("Tool arguments failed validation", "tool", name, "error", err)

			return nil, &errors.HostError{Message: fmt.Sprintf("invalid arguments for %s: %v", name, err)}
		}
	}

	return t.handler(ctx, args)
}

// Callable adapts the registry to the renderer's tool-callable shape.
func (r *Registry) Callable() func(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return r.Call
}

// SimpleSchema creates a jsonschema.Schema from a simple type map.
//
// Input format: {"a": "float64", "b": "string"}
// This is a convenience for registering tools without the full schema API.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	required := make([]string, 0, len(props))

	for name, goType := range props {
		properties[name] = goTypeToJSONSchema(goType)
		required = append(required, name)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// goTypeToJSONSchema converts a Go type string to a JSON Schema type.
func goTypeToJSONSchema(goType string) *jsonschema.Schema {
	switch goType {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return &jsonschema.Schema{Type: "integer"}
	case "float32", "float64", "float", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		if len(goType) > 2 && goType[:2] == "[]" {
			return &jsonschema.Schema{
				Type:  "array",
				Items: goTypeToJSONSchema(goType[2:]),
			}
		}

		return &jsonschema.Schema{Type: "string"}
	}
}
