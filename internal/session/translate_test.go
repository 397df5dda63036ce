package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatcore-ai/chatcore/internal/engine"
	"github.com/chatcore-ai/chatcore/pkg/types"
)

func TestTranslateKnownVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  engine.Event
		want types.StreamEvent
	}{
		{"token", engine.TokenDelta{Text: "hi"}, types.StreamEvent{Type: types.StreamToken, Text: "hi"}},
		{"tool start", engine.ToolStart{Name: "search"}, types.StreamEvent{Type: types.StreamToolStart, Tool: "search"}},
		{"tool end", engine.ToolEnd{Name: "search", Preview: "42"}, types.StreamEvent{Type: types.StreamToolEnd, Tool: "search", Preview: "42"}},
		{"step", engine.StepBoundary{Name: "step-2"}, types.StreamEvent{Type: types.StreamStep, Step: "step-2"}},
		{"done", engine.Done{}, types.StreamEvent{Type: types.StreamComplete}},
		{"failure", engine.Failure{Message: "boom"}, types.StreamEvent{Type: types.StreamError, Message: "boom"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Translate(tc.raw)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

// futureEvent stands in for a raw event kind added to the engine
// vocabulary after this translator was written.
type futureEvent struct{}

func (futureEvent) EngineEvent() {}

func TestTranslateDropsUnknownVariants(t *testing.T) {
	_, ok := Translate(futureEvent{})
	assert.False(t, ok, "unknown raw events must be dropped, not surfaced")
}

func TestTranslateNil(t *testing.T) {
	_, ok := Translate(nil)
	assert.False(t, ok)
}
