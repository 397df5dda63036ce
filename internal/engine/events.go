// Package engine defines the reasoning engine consumed by the session
// coordinator: a stateful component that takes one user message and
// produces a finite, ordered sequence of raw events.
package engine

// Event is the set of raw events an engine can produce. The session
// layer translates these into the caller-facing stream vocabulary;
// variants it does not recognize are dropped there, so engines may
// grow new kinds without breaking consumers.
type Event interface {
	EngineEvent()
}

// TokenDelta carries a fragment of generated text.
type TokenDelta struct {
	Text string
}

func (TokenDelta) EngineEvent() {}

// ToolStart announces that a named tool is about to run.
type ToolStart struct {
	Name string
}

func (ToolStart) EngineEvent() {}

// ToolEnd reports a finished tool run with a truncated result preview.
type ToolEnd struct {
	Name    string
	Preview string
}

func (ToolEnd) EngineEvent() {}

// StepBoundary marks the start of a named step in the reasoning loop.
type StepBoundary struct {
	Name string
}

func (StepBoundary) EngineEvent() {}

// Done signals normal completion of the invocation.
type Done struct{}

func (Done) EngineEvent() {}

// Failure signals that the invocation failed. It is the last event of
// its stream.
type Failure struct {
	Message string
}

func (Failure) EngineEvent() {}
