package session

import (
	"github.com/chatcore-ai/chatcore/internal/engine"
	"github.com/chatcore-ai/chatcore/pkg/types"
)

// Translate maps one raw engine event to the caller-facing stream
// vocabulary. It is pure and total: every known variant maps to
// exactly one output event, and unknown variants report false so the
// stream survives engine vocabulary growth instead of crashing on
// it.
func Translate(raw engine.Event) (types.StreamEvent, bool) {
	switch ev := raw.(type) {
	case engine.TokenDelta:
		return types.StreamEvent{Type: types.StreamToken, Text: ev.Text}, true
	case engine.ToolStart:
		return types.StreamEvent{Type: types.StreamToolStart, Tool: ev.Name}, true
	case engine.ToolEnd:
		return types.StreamEvent{Type: types.StreamToolEnd, Tool: ev.Name, Preview: ev.Preview}, true
	case engine.StepBoundary:
		return types.StreamEvent{Type: types.StreamStep, Step: ev.Name}, true
	case engine.Done:
		return types.StreamEvent{Type: types.StreamComplete}, true
	case engine.Failure:
		return types.StreamEvent{Type: types.StreamError, Message: ev.Message}, true
	default:
		return types.StreamEvent{}, false
	}
}
