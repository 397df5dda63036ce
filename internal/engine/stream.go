package engine

import (
	"io"
	"sync"
)

// Stream is a lazy, finite, non-restartable sequence of raw events.
// Recv returns io.EOF after the last event. Close releases the
// consumer side; a producer blocked on Send unblocks and stops.
type Stream struct {
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// StreamWriter is the producer side of a stream pipe.
type StreamWriter struct {
	s *Stream
}

// Pipe creates a connected stream and writer. The producer pushes
// events through the writer from its own goroutine; the consumer
// pulls them off the stream in order.
func Pipe() (*Stream, *StreamWriter) {
	s := &Stream{
		ch:   make(chan Event),
		done: make(chan struct{}),
	}
	return s, &StreamWriter{s: s}
}

// Recv returns the next event, or io.EOF once the producer has
// finished.
func (s *Stream) Recv() (Event, error) {
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return nil, io.EOF
		}
		return ev, nil
	case <-s.done:
		return nil, io.EOF
	}
}

// Close abandons the stream. Pending and future Recv calls return
// io.EOF; the producer observes the closure on its next Send.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.done) })
}

// Send delivers one event to the consumer. It reports false when the
// consumer has closed the stream, which tells the producer to stop.
func (w *StreamWriter) Send(ev Event) bool {
	select {
	case w.s.ch <- ev:
		return true
	case <-w.s.done:
		return false
	}
}

// Finish marks the end of the sequence. The producer must not Send
// after Finish.
func (w *StreamWriter) Finish() {
	close(w.s.ch)
}
