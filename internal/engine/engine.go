package engine

import "context"

// Engine is one session's stateful reasoning loop. An engine instance
// is owned by exactly one session and carries the conversation memory
// between invocations, so calls on the same engine must be serialized
// by the owner. Invoke returns a lazy event stream; the sequence is
// finite and cannot be restarted.
//
// The context covers stream production. Cancelling it tells the
// engine to wind down, but an invocation already blocked on an
// external call may run to completion; callers abandon the stream
// via Stream.Close instead of waiting.
type Engine interface {
	Invoke(ctx context.Context, message string) (*Stream, error)
}

// Factory creates a fresh engine for a new session.
type Factory interface {
	New() (Engine, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func() (Engine, error)

// New calls f.
func (f FactoryFunc) New() (Engine, error) { return f() }
