package widgetbridge

import "github.com/embedkit/widgetbridge/internal/host"

// Renderer connects one widget surface to real host execution.
type Renderer = host.Renderer

// RendererConfig assembles a Renderer.
type RendererConfig = host.Config

// Resource describes the content a renderer mounts into the isolated surface.
type Resource = host.Resource

// ToolCallable executes a named tool on behalf of the widget.
type ToolCallable = host.ToolCallable

// FollowUpHook receives follow-up prompts the widget submits.
type FollowUpHook = host.FollowUpHook

// LinkOpener receives navigation intents.
type LinkOpener = host.LinkOpener

// NewRenderer creates a renderer for one widget surface.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	return host.New(cfg)
}

// InlineResource wraps inline markup.
func InlineResource(html, origin string) Resource {
	return host.InlineResource(html, origin)
}

// RemoteResource references content by URL.
func RemoteResource(url, origin string) Resource {
	return host.RemoteResource(url, origin)
}

// EncodedResource decodes a base64 payload.
func EncodedResource(encoded, mimeType, origin string) (Resource, error) {
	return host.EncodedResource(encoded, mimeType, origin)
}
