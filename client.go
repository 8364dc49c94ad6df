package widgetbridge

import (
	"github.com/embedkit/widgetbridge/internal/client"
	"github.com/embedkit/widgetbridge/internal/scope"
)

// Client is the content-side capability object handed to widget code.
type Client = client.Client

// ClientConfig assembles a Client. Zero-value fields get working defaults.
type ClientConfig = client.Config

// Operations is the callable half of the capability object.
type Operations = client.Operations

// Surface is the union of operations and state, suitable for exposure as one
// ambient capability object.
type Surface = client.Surface

// LifecycleHook observes host lifecycle signals.
type LifecycleHook = client.LifecycleHook

// DefaultCallTimeout bounds correlated calls when no deadline is configured.
const DefaultCallTimeout = client.DefaultCallTimeout

// NewClient creates a content client. A nil Bridge runs every operation in
// unwired fallback mode: defaults log the missing capability and resolve
// within the deadline instead of hanging.
func NewClient(cfg ClientConfig) *Client {
	return client.New(cfg)
}

// ScopeRegistry is the single-assignment shared scope widget code looks
// capabilities up in.
type ScopeRegistry = scope.Registry

// WellKnownSlot is the slot name widget code looks up for the combined
// capability surface.
const WellKnownSlot = scope.WellKnownSlot

// NewScopeRegistry creates an empty shared scope.
func NewScopeRegistry() *ScopeRegistry {
	return scope.NewRegistry()
}
