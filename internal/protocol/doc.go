// Package protocol implements the message schema and correlation discipline
// linking a widget surface and its host.
//
// The two sides share no memory and cannot block on each other; the only
// channel between them delivers messages asynchronously. Every logical call
// is therefore a fire-and-eventually-reply pair: the Bridge assigns a unique
// correlation id per outgoing request, tracks it in a pending table, and
// settles the call when the matching response arrives or the deadline
// expires. Late and duplicate replies find no pending entry and are
// discarded.
//
// Example usage:
//
//	hostEnd, widgetEnd := transport.Pipe()
//
//	bridge := protocol.NewBridge(log, widgetEnd, "")
//	bridge.Start(ctx)
//
//	// Send a request with a 30s deadline
//	result, err := bridge.Call(ctx, protocol.TypeToolCall, payload, 30*time.Second)
package protocol
