package protocol

// Message type values carried in the "type" field of every wire message.
const (
	// TypeToolCall asks the host to execute a tool. Expects a reply.
	TypeToolCall = "tool-call"

	// TypeFollowUpPrompt asks the host to submit a follow-up prompt to the
	// conversation. Expects a reply.
	TypeFollowUpPrompt = "follow-up-prompt"

	// TypeOpenLink signals a navigation intent. Fire-and-forget, no id.
	TypeOpenLink = "open-link"

	// TypeResponse carries the result or error for a correlated request.
	TypeResponse = "response"

	// TypeLifecycle carries host-to-content lifecycle signals.
	TypeLifecycle = "lifecycle"

	// TypeStatePush streams host state into the widget.
	TypeStatePush = "state-push"
)

// Message is the wire unit exchanged between a widget surface and its host.
//
// Wire format:
//
//	{
//	  "type": "tool-call",
//	  "id": "01HV3...",
//	  "payload": {"toolName": "lookup", "params": {...}}
//	}
//
// ID is present only on messages that expect a reply, and on the reply itself.
type Message struct {
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Inbound is a message as read from a transport, tagged with the origin of
// the sending context. The transport attaches the origin; the bridge decides
// whether to honor it.
type Inbound struct {
	Origin  string
	Message Message
}

// NewResult builds a success response carrying the given correlation id.
func NewResult(id string, result map[string]any) Message {
	return Message{
		Type:    TypeResponse,
		ID:      id,
		Payload: map[string]any{"result": result},
	}
}

// NewError builds an error response carrying the given correlation id.
func NewError(id, message string) Message {
	return Message{
		Type:    TypeResponse,
		ID:      id,
		Payload: map[string]any{"error": map[string]any{"message": message}},
	}
}

// Result extracts the result payload from a success response.
func (m Message) Result() map[string]any {
	if r, ok := m.Payload["result"].(map[string]any); ok {
		return r
	}

	return nil
}

// IsError reports whether a response message carries an error.
func (m Message) IsError() bool {
	_, ok := m.Payload["error"]

	return ok
}

// ErrorMessage extracts the host-supplied message text from an error response.
func (m Message) ErrorMessage() string {
	e, ok := m.Payload["error"].(map[string]any)
	if !ok {
		return ""
	}

	if s, ok := e["message"].(string); ok {
		return s
	}

	return ""
}

// ExpectsReply reports whether a message of this type carries a correlation
// id and awaits a response.
func (m Message) ExpectsReply() bool {
	return m.ID != "" && m.Type != TypeResponse
}
