// Package errors defines error types for the widget bridge.
//
// This package provides structured error types for the failure scenarios of
// the bridge protocol: timed-out calls, host-side tool failures, dropped
// protocol messages, and invalid adapter configuration. All error types
// support error unwrapping and can be checked using errors.Is and errors.As.
package errors
