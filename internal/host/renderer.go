// Package host implements the host-side renderer: it mounts a content
// resource into an isolated surface, executes a host-supplied tool callable
// on behalf of the widget's requests, and streams state into it.
//
// The tool callable is the only host capability exercised here.
// Authorization, backend dispatch, and persistence belong to the caller.
package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/embedkit/widgetbridge/internal/errors"
	"github.com/embedkit/widgetbridge/internal/protocol"
	"github.com/embedkit/widgetbridge/internal/state"
	"github.com/embedkit/widgetbridge/internal/transport"
)

// ToolCallable executes a named tool on behalf of the widget. Supplied by
// the embedding application.
type ToolCallable func(ctx context.Context, name string, args map[string]any) (map[string]any, error)

// FollowUpHook receives follow-up prompts the widget submits. Optional;
// without one the renderer acknowledges prompts without effect.
type FollowUpHook func(ctx context.Context, prompt string) error

// LinkOpener receives navigation intents. Optional; without one the intent
// is logged and dropped.
type LinkOpener func(ctx context.Context, url string)

// Config assembles a Renderer.
type Config struct {
	Logger    *slog.Logger
	Transport transport.Transport
	Resource  Resource
	CallTool  ToolCallable
	FollowUp  FollowUpHook
	OpenLink  LinkOpener

	// Initial tool context pushed into the widget on mount, so it can
	// self-initialize without an extra round trip.
	ToolInput            map[string]any
	ToolOutput           map[string]any
	ToolResponseMetadata map[string]any
}

// Renderer connects one widget surface to real host execution. Created on
// mount, torn down on unmount; a fresh bridge per mount guarantees no
// listener accumulation across remounts of the same logical widget.
type Renderer struct {
	log *slog.Logger
	cfg Config

	mu        sync.Mutex
	mounted   bool
	surfaceID string
	bridge    *protocol.Bridge
	watch     *errgroup.Group
}

// New creates a renderer for one widget surface.
func New(cfg Config) (*Renderer, error) {
	if cfg.CallTool == nil {
		return nil, fmt.Errorf("renderer: tool callable is required")
	}

	if cfg.Transport == nil {
		return nil, fmt.Errorf("renderer: transport is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Renderer{
		log: log.With("component", "renderer"),
		cfg: cfg,
	}, nil
}

// SurfaceID returns the identifier assigned at mount, or "" before Mount.
func (r *Renderer) SurfaceID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.surfaceID
}

// Mount starts the surface: transport up, handlers registered, initial
// state pushed. Returns ErrAlreadyMounted on a live surface.
func (r *Renderer) Mount(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mounted {
		return errors.ErrAlreadyMounted
	}

	if err := r.cfg.Transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	surfaceID := uuid.New().String()
	log := r.log.With("surface_id", surfaceID)

	bridge := protocol.NewBridge(log, r.cfg.Transport, r.cfg.Resource.Origin)
	r.registerHandlers(bridge)

	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	log.Info("Surface mounted", "remote", r.cfg.Resource.IsRemote())

	if err := bridge.Notify(ctx, protocol.TypeLifecycle, map[string]any{"phase": "mounted"}); err != nil {
		log.Warn("Failed to send mounted lifecycle signal", "error", err)
	}

	// Initial replication: the widget self-initializes from this push
	// instead of asking for its tool context.
	if err := bridge.Notify(ctx, protocol.TypeStatePush, map[string]any{
		state.KeyToolInput:            r.cfg.ToolInput,
		state.KeyToolOutput:           r.cfg.ToolOutput,
		state.KeyToolResponseMetadata: r.cfg.ToolResponseMetadata,
	}); err != nil {
		log.Warn("Failed to push initial state", "error", err)
	}

	watch, _ := errgroup.WithContext(ctx)
	watch.Go(func() error {
		<-bridge.Done()

		if err := bridge.FatalError(); err != nil {
			log.Error("Bridge stopped with transport error", "error", err)

			return err
		}

		return nil
	})

	r.mounted = true
	r.surfaceID = surfaceID
	r.bridge = bridge
	r.watch = watch

	return nil
}

// PushState streams a state update into the widget.
func (r *Renderer) PushState(ctx context.Context, partial map[string]any) error {
	r.mu.Lock()
	bridge := r.bridge
	mounted := r.mounted
	r.mu.Unlock()

	if !mounted {
		return errors.ErrNotMounted
	}

	return bridge.Notify(ctx, protocol.TypeStatePush, partial)
}

// Unmount tears the surface down: lifecycle signal, bridge stopped, pending
// table dropped, transport closed. Idempotent.
func (r *Renderer) Unmount(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.mounted {
		return nil
	}

	if err := r.bridge.Notify(ctx, protocol.TypeLifecycle, map[string]any{"phase": "unmounting"}); err != nil {
		r.log.Debug("Failed to send unmounting lifecycle signal", "error", err)
	}

	r.bridge.Stop()
	_ = r.watch.Wait()

	if err := r.cfg.Transport.Close(); err != nil {
		r.log.Warn("Failed to close transport", "error", err)
	}

	r.log.Info("Surface unmounted", "surface_id", r.surfaceID)

	r.mounted = false
	r.bridge = nil
	r.watch = nil

	return nil
}

// registerHandlers connects the widget's outgoing requests to host
// execution.
func (r *Renderer) registerHandlers(bridge *protocol.Bridge) {
	bridge.RegisterHandler(protocol.TypeToolCall, func(ctx context.Context, msg protocol.Message) (map[string]any, error) {
		name, _ := msg.Payload["toolName"].(string)
		if name == "" {
			return nil, &errors.HostError{Message: "tool-call missing toolName"}
		}

		args, _ := msg.Payload["params"].(map[string]any)

		r.log.Debug("Executing tool call", "tool", name, "id", msg.ID)

		return r.cfg.CallTool(ctx, name, args)
	})

	bridge.RegisterHandler(protocol.TypeFollowUpPrompt, func(ctx context.Context, msg protocol.Message) (map[string]any, error) {
		prompt, _ := msg.Payload["prompt"].(string)

		if r.cfg.FollowUp == nil {
			// Acknowledge without effect; the widget only needs to know
			// the prompt was received.
			r.log.Debug("No follow-up hook configured, acknowledging", "id", msg.ID)

			return map[string]any{}, nil
		}

		if err := r.cfg.FollowUp(ctx, prompt); err != nil {
			return nil, err
		}

		return map[string]any{}, nil
	})

	bridge.RegisterHandler(protocol.TypeOpenLink, func(ctx context.Context, msg protocol.Message) (map[string]any, error) {
		url, _ := msg.Payload["url"].(string)

		if r.cfg.OpenLink == nil {
			r.log.Info("Navigation intent with no opener configured", "url", url)

			return nil, nil
		}

		r.cfg.OpenLink(ctx, url)

		return nil, nil
	})
}
