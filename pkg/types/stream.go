package types

// StreamEventType identifies one kind of output event on a message stream.
type StreamEventType string

const (
	// StreamToken carries a fragment of assistant text.
	StreamToken StreamEventType = "token"
	// StreamToolStart announces a tool invocation by name.
	StreamToolStart StreamEventType = "tool_start"
	// StreamToolEnd carries the tool name and a truncated result preview.
	StreamToolEnd StreamEventType = "tool_end"
	// StreamStep marks a step boundary inside the reasoning loop.
	StreamStep StreamEventType = "step"
	// StreamComplete terminates a successful stream. Exactly one of
	// StreamComplete or StreamError ends every stream.
	StreamComplete StreamEventType = "complete"
	// StreamError terminates a failed stream with a message.
	StreamError StreamEventType = "error"
)

// StreamEvent is one element of the ordered output stream produced by a
// message invocation. Fields other than Type are populated per kind.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Text    string          `json:"text,omitempty"`
	Tool    string          `json:"tool,omitempty"`
	Preview string          `json:"preview,omitempty"`
	Step    string          `json:"step,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Terminal reports whether the event ends its stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == StreamComplete || e.Type == StreamError
}
