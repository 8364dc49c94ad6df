package widgetbridge

import (
	"log/slog"

	"github.com/embedkit/widgetbridge/internal/protocol"
	"github.com/embedkit/widgetbridge/internal/transport"
)

// Message is the wire unit exchanged between a widget surface and its host.
type Message = protocol.Message

// Inbound is a message read from a transport, tagged with the sender origin.
type Inbound = protocol.Inbound

// Handler processes one inbound message and, for correlated requests,
// returns the result to send back.
type Handler = protocol.Handler

// Bridge is the protocol core: it correlates requests with responses,
// enforces the origin policy, and dispatches inbound messages to handlers.
type Bridge = protocol.Bridge

// Message type values carried in the "type" field of every wire message.
const (
	TypeToolCall       = protocol.TypeToolCall
	TypeFollowUpPrompt = protocol.TypeFollowUpPrompt
	TypeOpenLink       = protocol.TypeOpenLink
	TypeResponse       = protocol.TypeResponse
	TypeLifecycle      = protocol.TypeLifecycle
	TypeStatePush      = protocol.TypeStatePush
)

// NewBridge creates a bridge over the given transport. Inbound messages whose
// origin differs from expectedOrigin are discarded; "" disables the check.
func NewBridge(log *slog.Logger, t transport.Transport, expectedOrigin string) *Bridge {
	return protocol.NewBridge(log, t, expectedOrigin)
}
