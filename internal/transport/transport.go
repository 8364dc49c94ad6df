// Package transport provides message channels linking a widget surface and
// its host: an in-process pipe pair for same-process embedding and tests,
// and a websocket transport for surfaces rendered out of process.
package transport

import (
	"context"

	"github.com/embedkit/widgetbridge/internal/protocol"
)

// Transport is a bidirectional message channel endpoint. Implementations
// attach the sender's origin to every inbound message; the bridge decides
// whether to honor it.
type Transport interface {
	// Start prepares the endpoint for communication.
	Start(ctx context.Context) error

	// ReadMessages returns channels for receiving messages and errors.
	// Both channels are closed when reading completes or an error occurs.
	ReadMessages(ctx context.Context) (<-chan protocol.Inbound, <-chan error)

	// Send transmits a message to the counterpart.
	// This method must be safe for concurrent use.
	Send(ctx context.Context, msg protocol.Message) error

	// Close terminates the endpoint and releases resources.
	// It's safe to call Close multiple times.
	Close() error
}
