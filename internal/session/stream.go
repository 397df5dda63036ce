package session

import (
	"context"
	"io"

	"github.com/chatcore-ai/chatcore/pkg/types"
)

// NoResponseText is the fallback token emitted when an invocation
// completes without producing any forwardable events. A stream must
// never end empty: the caller always gets content or a terminal
// signal.
const NoResponseText = "no response generated"

// Sink receives output events in order. A non-nil error tells the
// coordinator the caller is gone and forwarding should stop.
type Sink func(types.StreamEvent) error

// Coordinator drives engine invocations for caller requests: one
// invocation per call, events forwarded as they arrive, per-session
// serialization via the store's locks.
type Coordinator struct {
	store *Store
}

// NewCoordinator creates a coordinator over store.
func NewCoordinator(store *Store) *Coordinator {
	return &Coordinator{store: store}
}

// StreamInvoke runs one invocation of sessionID's engine with
// message, pushing each translated event to sink as the engine
// produces it. Every consumed stream terminates with exactly one
// complete or error event; cancellation via ctx stops forwarding and
// releases the session promptly without waiting for engine-internal
// work. The per-session lock is released on every exit path.
func (c *Coordinator) StreamInvoke(ctx context.Context, sessionID, message string, sink Sink) {
	if sessionID == "" || message == "" {
		_ = sink(types.StreamEvent{
			Type:    types.StreamError,
			Message: "session id and message must be non-empty",
		})
		return
	}

	rec, lock, err := c.store.acquire(sessionID)
	if err != nil {
		_ = sink(types.StreamEvent{Type: types.StreamError, Message: err.Error()})
		return
	}
	defer lock.Unlock()

	// Refresh the access timestamp and count the message before the
	// engine runs, so the reaper never selects a session that is
	// starting work.
	c.store.begin(rec)

	stream, err := rec.engine.Invoke(ctx, message)
	if err != nil {
		_ = sink(types.StreamEvent{Type: types.StreamError, Message: err.Error()})
		return
	}
	defer stream.Close()

	// Caller cancellation means "stop pulling": closing the stream
	// unblocks a pending Recv and tells the engine to wind down on
	// its next send. Engine-internal work already in flight is not
	// forcibly interrupted.
	stopWatch := context.AfterFunc(ctx, stream.Close)
	defer stopWatch()

	tokens := 0
	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = sink(types.StreamEvent{Type: types.StreamError, Message: err.Error()})
			return
		}

		out, ok := Translate(raw)
		if !ok {
			continue
		}

		switch out.Type {
		case types.StreamComplete:
			// Terminal handling below, after the degenerate check.
		case types.StreamError:
			_ = sink(out)
			return
		default:
			if sink(out) != nil {
				return
			}
			if out.Type == types.StreamToken {
				tokens++
			}
			continue
		}
		break
	}

	if ctx.Err() != nil {
		// The stream was closed by cancellation, not completion.
		return
	}

	// Degenerate completion: the engine produced no text at all.
	if tokens == 0 {
		if sink(types.StreamEvent{Type: types.StreamToken, Text: NoResponseText}) != nil {
			return
		}
	}
	if sink(types.StreamEvent{Type: types.StreamComplete}) != nil {
		return
	}
	c.store.completed(rec)
}
