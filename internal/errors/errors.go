package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all widget bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*HostError)(nil)
	_ BridgeError = (*ProtocolError)(nil)
	_ BridgeError = (*ConfigError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrRequestTimeout indicates no correlated reply arrived within the deadline.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrBridgeStopped indicates the bridge read loop has stopped.
	ErrBridgeStopped = errors.New("bridge stopped")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrNotImplemented indicates an operation has no host-supplied
	// implementation. Surfaced loudly so missing host wiring is caught
	// during development instead of being masked by a silent no-op.
	ErrNotImplemented = errors.New("operation not implemented by host")

	// ErrAlreadyMounted indicates the renderer surface is already mounted.
	ErrAlreadyMounted = errors.New("surface already mounted")

	// ErrNotMounted indicates the renderer surface is not mounted.
	ErrNotMounted = errors.New("surface not mounted")

	// ErrUnknownMessageType indicates the message type is not recognized.
	// Callers should drop these messages rather than treating them as fatal.
	ErrUnknownMessageType = errors.New("unknown message type")
)

// HostError indicates tool execution failed on the host side. The message is
// the host-supplied text carried in the error field of a response message.
type HostError struct {
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host error: %s", e.Message)
}

// IsBridgeError implements BridgeError.
func (e *HostError) IsBridgeError() bool { return true }

// ProtocolError indicates a malformed message or an origin mismatch.
// These are dropped and logged, never surfaced to widget code.
type ProtocolError struct {
	Reason string
	Origin string
}

func (e *ProtocolError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("protocol error: %s (origin %q)", e.Reason, e.Origin)
	}

	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// IsBridgeError implements BridgeError.
func (e *ProtocolError) IsBridgeError() bool { return true }

// ConfigError indicates invalid adapter configuration. Configuration is baked
// into the generated shim, so this fails at generation time, not at call time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid adapter config: %s: %s", e.Field, e.Reason)
}

// IsBridgeError implements BridgeError.
func (e *ConfigError) IsBridgeError() bool { return true }
