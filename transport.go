package widgetbridge

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/embedkit/widgetbridge/internal/transport"
)

// Transport carries bridge messages between a widget surface and its host.
type Transport = transport.Transport

// PipeEnd is one endpoint of an in-process message channel.
type PipeEnd = transport.PipeEnd

// PipeOption configures a Pipe pair.
type PipeOption = transport.PipeOption

// WebSocket carries bridge messages over a websocket connection.
type WebSocket = transport.WebSocket

// Pipe creates a linked pair of in-process endpoints, host end first. It is
// the transport for same-process embedding and for tests.
func Pipe(opts ...PipeOption) (host, widget *PipeEnd) {
	return transport.Pipe(opts...)
}

// WithHostOrigin sets the origin stamped on messages sent by the host end.
func WithHostOrigin(origin string) PipeOption {
	return transport.WithHostOrigin(origin)
}

// WithWidgetOrigin sets the origin stamped on messages sent by the widget end.
func WithWidgetOrigin(origin string) PipeOption {
	return transport.WithWidgetOrigin(origin)
}

// AcceptWebSocket upgrades an incoming HTTP request to a websocket transport
// on the host side.
func AcceptWebSocket(log *slog.Logger, w http.ResponseWriter, r *http.Request) (*WebSocket, error) {
	return transport.Accept(log, w, r)
}

// DialWebSocket connects a widget-side transport to the host's websocket
// endpoint.
func DialWebSocket(ctx context.Context, log *slog.Logger, rawURL string) (*WebSocket, error) {
	return transport.Dial(ctx, log, rawURL)
}
