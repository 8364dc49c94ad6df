package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/coder/websocket"

	"github.com/embedkit/widgetbridge/internal/protocol"
)

// wsReadLimit bounds a single frame. Tool outputs can carry sizable payloads
// but a surface should never need more than this.
const wsReadLimit = 10 << 20

// Compile-time verification that WebSocket implements Transport.
var _ Transport = (*WebSocket)(nil)

// WebSocket carries bridge messages over a websocket connection, one JSON
// message per text frame. It serves surfaces rendered out of process: the
// host side accepts the connection, the widget side dials it.
type WebSocket struct {
	log        *slog.Logger
	conn       *websocket.Conn
	peerOrigin string

	readOnce  sync.Once
	messages  chan protocol.Inbound
	errs      chan error
	closeOnce sync.Once
}

// Accept upgrades an incoming HTTP request to a websocket transport on the
// host side. The request's Origin header is captured and stamped on every
// inbound message; the built-in browser origin check is skipped because the
// bridge enforces its own origin policy on each message.
func Accept(log *slog.Logger, w http.ResponseWriter, r *http.Request) (*WebSocket, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil, fmt.Errorf("accept websocket: %w", err)
	}

	conn.SetReadLimit(wsReadLimit)

	return newWebSocket(log, conn, r.Header.Get("Origin")), nil
}

// Dial connects a widget-side transport to the host's websocket endpoint.
// The peer origin is derived from the dialed URL.
func Dial(ctx context.Context, log *slog.Logger, rawURL string) (*WebSocket, error) {
	conn, _, err := websocket.Dial(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	conn.SetReadLimit(wsReadLimit)

	return newWebSocket(log, conn, originFromURL(rawURL)), nil
}

func newWebSocket(log *slog.Logger, conn *websocket.Conn, peerOrigin string) *WebSocket {
	return &WebSocket{
		log:        log.With("component", "ws_transport"),
		conn:       conn,
		peerOrigin: peerOrigin,
		messages:   make(chan protocol.Inbound, 16),
		errs:       make(chan error, 1),
	}
}

// originFromURL maps a ws(s) URL to the http(s) origin of its host.
func originFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	scheme := u.Scheme
	switch scheme {
	case "ws":
		scheme = "http"
	case "wss":
		scheme = "https"
	}

	return scheme + "://" + u.Host
}

// PeerOrigin returns the origin associated with the counterpart.
func (t *WebSocket) PeerOrigin() string {
	return t.peerOrigin
}

// Start implements Transport. The connection is already established by
// Accept or Dial.
func (t *WebSocket) Start(_ context.Context) error {
	return nil
}

// ReadMessages implements Transport. The read goroutine is started on the
// first call; both channels close when the connection ends.
func (t *WebSocket) ReadMessages(ctx context.Context) (<-chan protocol.Inbound, <-chan error) {
	t.readOnce.Do(func() {
		go t.readLoop(ctx)
	})

	return t.messages, t.errs
}

func (t *WebSocket) readLoop(ctx context.Context) {
	defer close(t.messages)
	defer close(t.errs)

	for {
		_, data, err := t.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || ctx.Err() != nil {
				t.log.Debug("Websocket closed", "error", err)

				return
			}

			t.errs <- fmt.Errorf("read frame: %w", err)

			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are dropped, not fatal; a misbehaving peer
			// must not take the surface down.
			t.log.Warn("Dropping malformed frame", "error", err)

			continue
		}

		select {
		case t.messages <- protocol.Inbound{Origin: t.peerOrigin, Message: msg}:
		case <-ctx.Done():
			return
		}
	}
}

// Send implements Transport.
func (t *WebSocket) Send(ctx context.Context, msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Close implements Transport.
func (t *WebSocket) Close() error {
	t.closeOnce.Do(func() {
		_ = t.conn.Close(websocket.StatusNormalClosure, "surface unmounted")
	})

	return nil
}
