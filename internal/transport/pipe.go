package transport

import (
	"context"
	"sync"

	"github.com/embedkit/widgetbridge/internal/errors"
	"github.com/embedkit/widgetbridge/internal/protocol"
)

// pipeBufferSize bounds in-flight messages per direction.
const pipeBufferSize = 64

// Compile-time verification that PipeEnd implements Transport.
var _ Transport = (*PipeEnd)(nil)

// PipeEnd is one endpoint of an in-process message channel. Delivery is
// asynchronous and the two ends share nothing but the channel, matching the
// isolation model of a sandboxed surface.
type PipeEnd struct {
	origin string

	sendCh chan protocol.Inbound
	out    chan protocol.Inbound // read by the peer; closed only by this end's pump
	in     chan protocol.Inbound
	errs   chan error

	closeOnce  sync.Once
	closed     chan struct{}
	peerClosed chan struct{}
}

// PipeOption configures a Pipe pair.
type PipeOption func(*pipeConfig)

type pipeConfig struct {
	hostOrigin   string
	widgetOrigin string
}

// WithHostOrigin sets the origin stamped on messages sent by the host end.
func WithHostOrigin(origin string) PipeOption {
	return func(c *pipeConfig) {
		c.hostOrigin = origin
	}
}

// WithWidgetOrigin sets the origin stamped on messages sent by the widget end.
func WithWidgetOrigin(origin string) PipeOption {
	return func(c *pipeConfig) {
		c.widgetOrigin = origin
	}
}

// Pipe creates a linked pair of endpoints. Messages sent on the host end
// arrive on the widget end tagged with the host origin, and vice versa.
// Closing either end stops delivery in both directions.
func Pipe(opts ...PipeOption) (host, widget *PipeEnd) {
	cfg := &pipeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	hostToWidget := make(chan protocol.Inbound, pipeBufferSize)
	widgetToHost := make(chan protocol.Inbound, pipeBufferSize)
	hostClosed := make(chan struct{})
	widgetClosed := make(chan struct{})

	host = &PipeEnd{
		origin:     cfg.hostOrigin,
		sendCh:     make(chan protocol.Inbound),
		out:        hostToWidget,
		in:         widgetToHost,
		errs:       make(chan error, 1),
		closed:     hostClosed,
		peerClosed: widgetClosed,
	}

	widget = &PipeEnd{
		origin:     cfg.widgetOrigin,
		sendCh:     make(chan protocol.Inbound),
		out:        widgetToHost,
		in:         hostToWidget,
		errs:       make(chan error, 1),
		closed:     widgetClosed,
		peerClosed: hostClosed,
	}

	go host.pump()
	go widget.pump()

	return host, widget
}

// pump is the sole writer and closer of the outbound channel, so a Close
// racing a Send can never panic on a closed channel.
func (e *PipeEnd) pump() {
	for {
		select {
		case in := <-e.sendCh:
			select {
			case e.out <- in:
			case <-e.closed:
				close(e.out)

				return
			case <-e.peerClosed:
				return
			}

		case <-e.closed:
			close(e.out)

			return

		case <-e.peerClosed:
			return
		}
	}
}

// Start implements Transport. Pipe endpoints are ready on creation.
func (e *PipeEnd) Start(_ context.Context) error {
	return nil
}

// ReadMessages implements Transport.
func (e *PipeEnd) ReadMessages(_ context.Context) (<-chan protocol.Inbound, <-chan error) {
	return e.in, e.errs
}

// Send implements Transport.
func (e *PipeEnd) Send(ctx context.Context, msg protocol.Message) error {
	select {
	case e.sendCh <- protocol.Inbound{Origin: e.origin, Message: msg}:
		return nil
	case <-e.closed:
		return errors.ErrTransportNotConnected
	case <-e.peerClosed:
		return errors.ErrTransportNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Transport. The peer observes a closed message channel.
func (e *PipeEnd) Close() error {
	e.closeOnce.Do(func() {
		close(e.closed)
	})

	return nil
}
