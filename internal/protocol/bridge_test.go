package protocol

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/embedkit/widgetbridge/internal/errors"
)

// mockTransport is a channel-backed transport for bridge tests.
type mockTransport struct {
	mu      sync.Mutex
	sent    []Message
	inbound chan Inbound
	errs    chan error
	sendErr error
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		inbound: make(chan Inbound, 16),
		errs:    make(chan error, 1),
	}
}

func (t *mockTransport) ReadMessages(_ context.Context) (<-chan Inbound, <-chan error) {
	return t.inbound, t.errs
}

func (t *mockTransport) Send(_ context.Context, msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return t.sendErr
	}

	t.sent = append(t.sent, msg)

	return nil
}

func (t *mockTransport) sentMessages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Message, len(t.sent))
	copy(out, t.sent)

	return out
}

// waitForSent polls until at least n messages have been sent.
func (t *mockTransport) waitForSent(tb testing.TB, n int) []Message {
	tb.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := t.sentMessages(); len(msgs) >= n {
			return msgs
		}

		time.Sleep(time.Millisecond)
	}

	tb.Fatalf("expected %d sent messages", n)

	return nil
}

func (t *mockTransport) deliver(origin string, msg Message) {
	t.inbound <- Inbound{Origin: origin, Message: msg}
}

func TestBridge_Call_Success(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	go func() {
		msgs := transport.waitForSent(t, 1)
		transport.deliver("", NewResult(msgs[0].ID, map[string]any{"rows": float64(3)}))
	}()

	result, err := bridge.Call(ctx, TypeToolCall, map[string]any{"toolName": "lookup"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"rows": float64(3)}, result)
	require.Zero(t, bridge.PendingCount())
}

func TestBridge_Call_HostError(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	go func() {
		msgs := transport.waitForSent(t, 1)
		transport.deliver("", NewError(msgs[0].ID, "tool exploded"))
	}()

	_, err := bridge.Call(ctx, TypeToolCall, nil, time.Second)

	var hostErr *bridgeerrors.HostError

	require.ErrorAs(t, err, &hostErr)
	require.Equal(t, "tool exploded", hostErr.Message)
}

func TestBridge_Call_Timeout_RemovesPending(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	_, err := bridge.Call(ctx, TypeToolCall, map[string]any{}, 10*time.Millisecond)
	require.ErrorIs(t, err, bridgeerrors.ErrRequestTimeout)
	require.Zero(t, bridge.PendingCount())
}

func TestBridge_StaleResponse_Discarded(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	_, err := bridge.Call(ctx, TypeToolCall, nil, 5*time.Millisecond)
	require.ErrorIs(t, err, bridgeerrors.ErrRequestTimeout)

	// Late reply for the already-failed call must be a no-op, not a panic
	// or a resurrection.
	msgs := transport.waitForSent(t, 1)
	transport.deliver("", NewResult(msgs[0].ID, map[string]any{"late": true}))

	// A second reply for the same id is equally inert.
	transport.deliver("", NewResult(msgs[0].ID, map[string]any{"late": "again"}))

	time.Sleep(20 * time.Millisecond)
	require.Zero(t, bridge.PendingCount())
}

func TestBridge_SingleSettlementPerID(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	go func() {
		msgs := transport.waitForSent(t, 1)
		transport.deliver("", NewResult(msgs[0].ID, map[string]any{"n": float64(1)}))
		// Duplicate settle attempt for the same id.
		transport.deliver("", NewResult(msgs[0].ID, map[string]any{"n": float64(2)}))
	}()

	result, err := bridge.Call(ctx, TypeToolCall, nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, float64(1), result["n"])
}

func TestBridge_OriginMismatch_Dropped(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "https://widgets.example")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	handled := make(chan struct{}, 2)

	bridge.RegisterHandler(TypeToolCall, func(_ context.Context, _ Message) (map[string]any, error) {
		handled <- struct{}{}

		return map[string]any{}, nil
	})

	// Forged request from a third frame: dropped, no reply sent.
	transport.deliver("https://evil.example", Message{Type: TypeToolCall, ID: "forged"})

	select {
	case <-handled:
		t.Fatal("handler must not fire for foreign origin")
	case <-time.After(50 * time.Millisecond):
	}

	require.Empty(t, transport.sentMessages())

	// Same message from the expected origin goes through.
	transport.deliver("https://widgets.example", Message{Type: TypeToolCall, ID: "ok"})

	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("handler did not fire for expected origin")
	}
}

func TestBridge_OriginCheck_AppliesToResponses(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "https://widgets.example")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	go func() {
		msgs := transport.waitForSent(t, 1)
		// Forged reply from the wrong origin must not settle the call.
		transport.deliver("https://evil.example", NewResult(msgs[0].ID, map[string]any{"forged": true}))
	}()

	_, err := bridge.Call(ctx, TypeToolCall, nil, 50*time.Millisecond)
	require.ErrorIs(t, err, bridgeerrors.ErrRequestTimeout)
}

func TestBridge_Handler_RepliesWithSameID(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	bridge.RegisterHandler(TypeToolCall, func(_ context.Context, msg Message) (map[string]any, error) {
		name, _ := msg.Payload["toolName"].(string)

		return map[string]any{"echo": name}, nil
	})

	transport.deliver("", Message{
		Type:    TypeToolCall,
		ID:      "req-1",
		Payload: map[string]any{"toolName": "lookup"},
	})

	msgs := transport.waitForSent(t, 1)
	require.Equal(t, TypeResponse, msgs[0].Type)
	require.Equal(t, "req-1", msgs[0].ID)
	require.False(t, msgs[0].IsError())
	require.Equal(t, "lookup", msgs[0].Result()["echo"])
}

func TestBridge_Handler_ErrorWrappedIntoResponse(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	bridge.RegisterHandler(TypeToolCall, func(_ context.Context, _ Message) (map[string]any, error) {
		return nil, errors.New("backend unavailable")
	})

	transport.deliver("", Message{Type: TypeToolCall, ID: "req-2"})

	msgs := transport.waitForSent(t, 1)
	require.Equal(t, "req-2", msgs[0].ID)
	require.True(t, msgs[0].IsError())
	require.Equal(t, "backend unavailable", msgs[0].ErrorMessage())
}

func TestBridge_NoHandler_RequestGetsErrorReply(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	transport.deliver("", Message{Type: TypeFollowUpPrompt, ID: "req-3"})

	msgs := transport.waitForSent(t, 1)
	require.Equal(t, "req-3", msgs[0].ID)
	require.True(t, msgs[0].IsError())
}

func TestBridge_NoHandler_NotificationDropped(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	transport.deliver("", Message{Type: TypeOpenLink, Payload: map[string]any{"url": "https://example.com"}})

	time.Sleep(20 * time.Millisecond)
	require.Empty(t, transport.sentMessages())
}

func TestBridge_Notify_CarriesNoID(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	require.NoError(t, bridge.Notify(ctx, TypeOpenLink, map[string]any{"url": "https://example.com"}))

	msgs := transport.waitForSent(t, 1)
	require.Empty(t, msgs[0].ID)
	require.Equal(t, TypeOpenLink, msgs[0].Type)
}

func TestBridge_Stop_FailsOutstandingCall(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	errCh := make(chan error, 1)

	go func() {
		_, err := bridge.Call(ctx, TypeToolCall, nil, time.Minute)
		errCh <- err
	}()

	transport.waitForSent(t, 1)
	bridge.Stop()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, bridgeerrors.ErrBridgeStopped)
	case <-time.After(time.Second):
		t.Fatal("call did not fail after Stop")
	}
}

func TestBridge_SetFatalError_FirstErrorWins(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	bridge.SetFatalError(errors.New("first error"))
	require.EqualError(t, bridge.FatalError(), "first error")

	bridge.SetFatalError(errors.New("second error"))
	require.EqualError(t, bridge.FatalError(), "first error")
}

func TestBridge_Stop_MultipleCalls(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	bridge.Stop()
	bridge.Stop()

	select {
	case <-bridge.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestBridge_ConcurrentCalls_AreIndependent(t *testing.T) {
	transport := newMockTransport()
	bridge := NewBridge(slog.Default(), transport, "")

	ctx := context.Background()
	require.NoError(t, bridge.Start(ctx))

	defer bridge.Stop()

	const calls = 8

	go func() {
		msgs := transport.waitForSent(t, calls)
		// Reply in reverse order; correlation must not depend on ordering.
		for i := len(msgs) - 1; i >= 0; i-- {
			transport.deliver("", NewResult(msgs[i].ID, map[string]any{"id": msgs[i].ID}))
		}
	}()

	errCh := make(chan error, calls)

	var wg sync.WaitGroup

	for range calls {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := bridge.Call(ctx, TypeToolCall, nil, 2*time.Second)
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	require.Zero(t, bridge.PendingCount())
}
