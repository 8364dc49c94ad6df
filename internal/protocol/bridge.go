package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/embedkit/widgetbridge/internal/errors"
)

// Transport defines the minimal interface needed for bridge operations.
//
// This interface is satisfied by the pipe and websocket transports but allows
// for testing with mock transports.
type Transport interface {
	ReadMessages(ctx context.Context) (<-chan Inbound, <-chan error)
	Send(ctx context.Context, msg Message) error
}

// Handler processes an inbound request message and returns a result payload
// or an error. For messages carrying a correlation id, the bridge wraps the
// return value into a response message automatically.
type Handler func(ctx context.Context, msg Message) (map[string]any, error)

// Bridge manages correlated request/response traffic over a message channel
// between a widget surface and its host.
//
// The Bridge handles:
//   - Sending request messages with unique correlation ids
//   - Receiving response messages and routing them to waiting calls
//   - Deadline enforcement per call
//   - Handler registration for inbound requests from the counterpart
//   - Discarding stale replies and messages from unexpected origins
//
// Both sides of the channel run a Bridge; the only state they share is the
// channel itself. The pending table is the sole mutable shared state per
// side, guarded by a mutex since Go hosts are multi-threaded.
type Bridge struct {
	log       *slog.Logger
	transport Transport

	// expectedOrigin filters inbound traffic. Empty accepts any origin.
	expectedOrigin string

	// Outstanding calls awaiting a reply, keyed by correlation id.
	pendingMu sync.Mutex
	pending   map[string]*pendingCall

	// Handler registry for inbound request messages, keyed by message type.
	handlersMu sync.RWMutex
	handlers   map[string]Handler

	// Fatal error handling - stores error and broadcasts via done channel.
	errMu    sync.RWMutex
	fatalErr error

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// pendingCall tracks an outgoing request awaiting its response.
// Never shared across call instances; removed on reply or timeout.
type pendingCall struct {
	response chan Message
	created  time.Time
}

// NewBridge creates a bridge over the given transport.
//
// expectedOrigin restricts which origins may speak on this channel; messages
// from any other origin are dropped and logged, preventing a third context
// from forging tool results or state. Pass "" to accept the current channel's
// counterpart unconditionally.
func NewBridge(log *slog.Logger, transport Transport, expectedOrigin string) *Bridge {
	return &Bridge{
		log:            log.With("component", "bridge"),
		transport:      transport,
		expectedOrigin: expectedOrigin,
		pending:        make(map[string]*pendingCall, 8),
		handlers:       make(map[string]Handler, 8),
		done:           make(chan struct{}),
	}
}

// closeDone safely closes the done channel exactly once.
func (b *Bridge) closeDone() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

// SetFatalError stores a fatal error and broadcasts to all waiters by closing done.
func (b *Bridge) SetFatalError(err error) {
	b.errMu.Lock()

	if b.fatalErr == nil {
		b.fatalErr = err
	}

	b.errMu.Unlock()

	b.closeDone()
}

// FatalError returns the fatal error if one occurred.
func (b *Bridge) FatalError() error {
	b.errMu.RLock()
	defer b.errMu.RUnlock()

	return b.fatalErr
}

// Done returns a channel that is closed when the bridge stops.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Start begins reading messages from the transport and routing them.
//
// Start must be called before Call or any registered handler will fire.
func (b *Bridge) Start(ctx context.Context) error {
	b.log.Debug("Starting bridge")

	messages, errs := b.transport.ReadMessages(ctx)

	b.wg.Add(1)

	go b.readLoop(ctx, messages, errs)

	return nil
}

// Stop shuts down the bridge and drops the pending table. Outstanding calls
// fail with ErrBridgeStopped. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.log.Debug("Stopping bridge")

	b.closeDone()
	b.wg.Wait()
}

// RegisterHandler registers a handler for inbound messages of the given type.
//
// Only one handler can be registered per message type; registering twice
// overrides the previous handler.
func (b *Bridge) RegisterHandler(msgType string, handler Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()

	b.log.Debug("Registering message handler", "type", msgType)
	b.handlers[msgType] = handler
}

// Call sends a request message and waits for the correlated response.
//
// A fresh correlation id is generated per call (ULID: time-ordered with a
// random suffix, collision-safe under rapid calls), a pending entry is
// registered under it, and the call blocks until the matching response
// arrives or the deadline expires. The counterpart may never answer -- the
// feature may be unimplemented, the host may have crashed, or navigation may
// have occurred -- so the timeout bounds the wait.
//
// On success the result payload is returned. An error response surfaces as a
// *errors.HostError carrying the host-supplied message text.
func (b *Bridge) Call(
	ctx context.Context,
	msgType string,
	payload map[string]any,
	timeout time.Duration,
) (map[string]any, error) {
	id := ulid.Make().String()

	b.log.Debug("Sending request", "id", id, "type", msgType)

	pending := &pendingCall{
		response: make(chan Message, 1),
		created:  time.Now(),
	}

	b.pendingMu.Lock()
	b.pending[id] = pending
	b.pendingMu.Unlock()

	msg := Message{Type: msgType, ID: id, Payload: payload}

	if err := b.transport.Send(ctx, msg); err != nil {
		b.removePending(id)
		b.log.Error("Failed to send request", "id", id, "error", err)

		return nil, fmt.Errorf("send request: %w", err)
	}

	select {
	case resp := <-pending.response:
		if resp.IsError() {
			errMsg := resp.ErrorMessage()
			b.log.Warn("Request returned error", "id", id, "error", errMsg)

			return nil, &errors.HostError{Message: errMsg}
		}

		b.log.Debug("Request settled", "id", id)

		return resp.Result(), nil

	case <-b.done:
		b.removePending(id)

		if err := b.FatalError(); err != nil {
			b.log.Warn("Transport error during request", "id", id, "error", err)

			return nil, fmt.Errorf("transport error: %w", err)
		}

		b.log.Debug("Bridge stopped during request", "id", id)

		return nil, errors.ErrBridgeStopped

	case <-time.After(timeout):
		b.removePending(id)
		b.log.Warn("Request timed out", "id", id, "timeout", timeout)

		return nil, fmt.Errorf("%w after %s", errors.ErrRequestTimeout, timeout)

	case <-ctx.Done():
		b.removePending(id)
		b.log.Debug("Request cancelled", "id", id)

		return nil, ctx.Err()
	}
}

// Notify sends a fire-and-forget message (open-link, lifecycle, state-push).
// No correlation id is attached and no reply is expected.
func (b *Bridge) Notify(ctx context.Context, msgType string, payload map[string]any) error {
	b.log.Debug("Sending notification", "type", msgType)

	msg := Message{Type: msgType, Payload: payload}

	if err := b.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	return nil
}

// removePending deletes a pending entry without settling it.
func (b *Bridge) removePending(id string) {
	b.pendingMu.Lock()
	delete(b.pending, id)
	b.pendingMu.Unlock()
}

// PendingCount reports the number of outstanding calls. Used by tests and
// teardown assertions.
func (b *Bridge) PendingCount() int {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	return len(b.pending)
}

// readLoop reads inbound messages and routes them.
func (b *Bridge) readLoop(
	ctx context.Context,
	messages <-chan Inbound,
	errs <-chan error,
) {
	defer b.wg.Done()
	defer b.log.Debug("Bridge read loop stopped")

	for {
		select {
		case in, ok := <-messages:
			if !ok {
				b.log.Debug("Message channel closed")

				return
			}

			b.handleInbound(ctx, in)

		case err, ok := <-errs:
			if !ok {
				b.log.Debug("Error channel closed")

				return
			}

			if err != nil {
				b.log.Debug("Transport error in bridge", "error", err)
				b.SetFatalError(err)

				return
			}

		case <-b.done:
			return

		case <-ctx.Done():
			b.log.Debug("Context cancelled in bridge read loop")

			return
		}
	}
}

// handleInbound enforces the origin policy and routes a message by type.
//
// The same origin check applies to requests and responses: a forged reply
// can inject tool results just as a forged request can trigger execution, so
// neither direction trusts unexpected origins.
func (b *Bridge) handleInbound(ctx context.Context, in Inbound) {
	if b.expectedOrigin != "" && in.Origin != b.expectedOrigin {
		perr := &errors.ProtocolError{Reason: "origin mismatch", Origin: in.Origin}
		b.log.Warn("Dropping message", "error", perr, "type", in.Message.Type)

		return
	}

	msg := in.Message

	if msg.Type == TypeResponse {
		b.settle(msg)

		return
	}

	b.handlersMu.RLock()
	handler, exists := b.handlers[msg.Type]
	b.handlersMu.RUnlock()

	if !exists {
		if msg.ExpectsReply() {
			b.log.Warn("No handler for request", "type", msg.Type, "id", msg.ID)
			b.reply(ctx, NewError(msg.ID, "no handler for "+msg.Type))

			return
		}

		b.log.Debug("Dropping message with no handler", "type", msg.Type)

		return
	}

	// Run handlers in goroutines so the read loop keeps processing while a
	// call is outstanding.
	b.wg.Go(func() {
		payload, err := handler(ctx, msg)

		if !msg.ExpectsReply() {
			if err != nil {
				b.log.Warn("Notification handler failed", "type", msg.Type, "error", err)
			}

			return
		}

		if err != nil {
			b.log.Warn("Handler returned error", "id", msg.ID, "error", err)
			b.reply(ctx, NewError(msg.ID, err.Error()))

			return
		}

		b.reply(ctx, NewResult(msg.ID, payload))
	})
}

// settle delivers a response to the waiting call, claiming the pending entry
// atomically. A response with no live pending entry -- already settled,
// already timed out, or forged -- is discarded; a finished call is never
// resurrected.
func (b *Bridge) settle(msg Message) {
	if msg.ID == "" {
		b.log.Warn("Response missing correlation id")

		return
	}

	b.pendingMu.Lock()

	pending, exists := b.pending[msg.ID]
	if exists {
		delete(b.pending, msg.ID)
	}

	b.pendingMu.Unlock()

	if !exists {
		b.log.Debug("Discarding stale response", "id", msg.ID)

		return
	}

	// We own the entry now; channel is buffered so this never blocks.
	pending.response <- msg
}

// reply sends a response message, logging failures during shutdown quietly.
func (b *Bridge) reply(ctx context.Context, msg Message) {
	if err := b.transport.Send(ctx, msg); err != nil {
		if ctx.Err() != nil {
			b.log.Debug("Could not send response during shutdown", "error", err)

			return
		}

		b.log.Error("Failed to send response", "id", msg.ID, "error", err)
	}
}
