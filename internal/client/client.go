// Package client implements the content-side capability object handed to
// widget code: live replicated state plus the callable operations that turn
// into correlated bridge messages.
package client

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/embedkit/widgetbridge/internal/errors"
	"github.com/embedkit/widgetbridge/internal/protocol"
	"github.com/embedkit/widgetbridge/internal/scope"
	"github.com/embedkit/widgetbridge/internal/state"
)

// DefaultCallTimeout bounds correlated calls when no deadline is configured.
const DefaultCallTimeout = 30 * time.Second

// Caller is the protocol surface the client needs. Satisfied by
// *protocol.Bridge; nil when widget code runs before host wiring exists.
type Caller interface {
	Call(ctx context.Context, msgType string, payload map[string]any, timeout time.Duration) (map[string]any, error)
	Notify(ctx context.Context, msgType string, payload map[string]any) error
	RegisterHandler(msgType string, handler protocol.Handler)
}

// Operations is the callable half of the capability object. Each field may
// be overridden individually; a supplied override fully replaces the default
// for that operation, it never composes with it.
type Operations struct {
	// CallTool asks the host to execute a named tool. Correlated; fails
	// with a timeout if no reply arrives within the deadline.
	CallTool func(ctx context.Context, name string, args map[string]any) (map[string]any, error)

	// SendFollowUpPrompt submits a follow-up prompt to the conversation.
	// Correlated like CallTool.
	SendFollowUpPrompt func(ctx context.Context, prompt string) error

	// OpenExternalLink signals a navigation intent. Fire-and-forget.
	OpenExternalLink func(ctx context.Context, href string) error

	// RequestDisplayMode asks the host to change the display mode and
	// returns the granted mode.
	RequestDisplayMode func(ctx context.Context, mode string) (string, error)

	// SetWidgetState persists widget-owned state.
	SetWidgetState func(ctx context.Context, widgetState map[string]any) error
}

// Surface is the union of operations and state, suitable for exposure as
// one ambient capability object in the widget's shared scope.
type Surface struct {
	Operations

	// State returns a copy of the current snapshot.
	State func() map[string]any

	// UpdateState shallow-merges a partial update into live state.
	UpdateState func(partial map[string]any)
}

// LifecycleHook observes host lifecycle signals (mounted, unmounting).
type LifecycleHook func(ctx context.Context, payload map[string]any)

// Config assembles a Client. Zero-value fields get working defaults.
type Config struct {
	Logger        *slog.Logger
	Bridge        Caller // nil runs every operation in unwired fallback mode
	CallTimeout   time.Duration
	Overrides     Operations
	LifecycleHook LifecycleHook
}

// Client presents one coherent capability object to widget code. Create it
// with New, then hand Surface() to the widget or publish it into the shared
// scope with PublishTo.
type Client struct {
	log     *slog.Logger
	bridge  Caller
	state   *state.Store
	timeout time.Duration
	ops     Operations
}

// New creates a content client and, when a bridge is present, registers the
// inbound handlers that keep the snapshot replicated.
func New(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	c := &Client{
		log:     log.With("component", "content_client"),
		bridge:  cfg.Bridge,
		state:   state.NewStore(),
		timeout: timeout,
	}

	c.ops = c.defaultOperations()
	applyOverrides(&c.ops, cfg.Overrides)

	if c.bridge != nil {
		c.registerHandlers(cfg.LifecycleHook)
	}

	return c
}

// State returns a copy of the current snapshot. Callers may mutate the copy
// freely without affecting live state.
func (c *Client) State() map[string]any {
	return c.state.Get()
}

// UpdateState shallow-merges partial into live state. No schema validation;
// last write per key wins.
func (c *Client) UpdateState(partial map[string]any) {
	c.state.Merge(partial)
}

// Operations returns the callable operation set with overrides applied.
func (c *Client) Operations() Operations {
	return c.ops
}

// Surface returns the combined state-and-operations capability object.
func (c *Client) Surface() *Surface {
	return &Surface{
		Operations:  c.ops,
		State:       c.State,
		UpdateState: c.UpdateState,
	}
}

// PublishTo installs the combined surface into the shared scope's well-known
// slot, only if nothing is installed there yet. Reports whether this
// client's surface now owns the slot it tried to claim; a second
// initialization never clobbers an existing instance.
func (c *Client) PublishTo(reg *scope.Registry) bool {
	installed := reg.Publish(scope.WellKnownSlot, c.Surface())
	if !installed {
		c.log.Debug("Shared scope slot already occupied, keeping existing instance")
	}

	return installed
}

// registerHandlers wires host-to-content signals into the snapshot.
func (c *Client) registerHandlers(hook LifecycleHook) {
	c.bridge.RegisterHandler(protocol.TypeStatePush, func(_ context.Context, msg protocol.Message) (map[string]any, error) {
		c.log.Debug("Merging state push", "keys", len(msg.Payload))
		c.state.Merge(msg.Payload)

		return nil, nil
	})

	c.bridge.RegisterHandler(protocol.TypeLifecycle, func(ctx context.Context, msg protocol.Message) (map[string]any, error) {
		if hook != nil {
			hook(ctx, msg.Payload)
		}

		return nil, nil
	})
}

// defaultOperations builds the stock operation set. With a bridge attached
// the correlated operations speak the wire protocol; without one they log
// and honor the deadline, so widget code is testable before host wiring
// exists and a call can never hang the caller.
func (c *Client) defaultOperations() Operations {
	return Operations{
		CallTool: func(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
			if c.bridge == nil {
				c.log.Info("callTool invoked with no host wiring", "tool", name)

				return nil, c.unwiredWait(ctx)
			}

			payload := map[string]any{"toolName": name, "params": args}

			return c.bridge.Call(ctx, protocol.TypeToolCall, payload, c.timeout)
		},

		SendFollowUpPrompt: func(ctx context.Context, prompt string) error {
			if c.bridge == nil {
				c.log.Info("sendFollowUpPrompt invoked with no host wiring", "prompt", prompt)

				return c.unwiredWait(ctx)
			}

			_, err := c.bridge.Call(ctx, protocol.TypeFollowUpPrompt, map[string]any{"prompt": prompt}, c.timeout)

			return err
		},

		OpenExternalLink: func(ctx context.Context, href string) error {
			if c.bridge == nil {
				c.log.Info("openExternalLink invoked with no host wiring", "href", href)

				return nil
			}

			return c.bridge.Notify(ctx, protocol.TypeOpenLink, map[string]any{"url": href})
		},

		// The default deliberately fails loudly instead of pretending the
		// mode changed; hosts must supply a real implementation.
		RequestDisplayMode: func(_ context.Context, mode string) (string, error) {
			c.log.Warn("requestDisplayMode has no host implementation", "mode", mode)

			return "", errors.ErrNotImplemented
		},

		SetWidgetState: func(_ context.Context, widgetState map[string]any) error {
			c.state.Set(state.KeyWidgetState, widgetState)

			return nil
		},
	}
}

// unwiredWait emulates the absent counterpart: the deadline elapses and the
// call fails with a timeout condition.
func (c *Client) unwiredWait(ctx context.Context) error {
	select {
	case <-time.After(c.timeout):
		return errors.ErrRequestTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// applyOverrides replaces defaults per operation. Replacement is per key,
// never a merge of behaviors.
func applyOverrides(ops *Operations, overrides Operations) {
	if overrides.CallTool != nil {
		ops.CallTool = overrides.CallTool
	}

	if overrides.SendFollowUpPrompt != nil {
		ops.SendFollowUpPrompt = overrides.SendFollowUpPrompt
	}

	if overrides.OpenExternalLink != nil {
		ops.OpenExternalLink = overrides.OpenExternalLink
	}

	if overrides.RequestDisplayMode != nil {
		ops.RequestDisplayMode = overrides.RequestDisplayMode
	}

	if overrides.SetWidgetState != nil {
		ops.SetWidgetState = overrides.SetWidgetState
	}
}
