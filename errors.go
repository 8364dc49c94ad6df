package widgetbridge

import "github.com/embedkit/widgetbridge/internal/errors"

// Re-export error types from internal package

// HostError indicates tool execution failed on the host side.
type HostError = errors.HostError

// ProtocolError indicates a malformed message or an origin mismatch.
type ProtocolError = errors.ProtocolError

// ConfigError indicates invalid adapter configuration.
type ConfigError = errors.ConfigError

// BridgeError is the base interface for all widget bridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrRequestTimeout indicates no correlated reply arrived within the deadline.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrBridgeStopped indicates the bridge read loop has stopped.
	ErrBridgeStopped = errors.ErrBridgeStopped

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrNotImplemented indicates an operation has no host-supplied implementation.
	ErrNotImplemented = errors.ErrNotImplemented

	// ErrAlreadyMounted indicates the renderer surface is already mounted.
	ErrAlreadyMounted = errors.ErrAlreadyMounted

	// ErrNotMounted indicates the renderer surface is not mounted.
	ErrNotMounted = errors.ErrNotMounted
)
