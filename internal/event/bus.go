// Package event provides the pub/sub bus for session lifecycle
// notifications, built on watermill's gochannel transport.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type names one kind of lifecycle event.
type Type string

const (
	SessionCreated   Type = "session.created"
	SessionClosed    Type = "session.closed"
	SessionReaped    Type = "session.reaped"
	MessageCompleted Type = "message.completed"
)

// Event is one published notification.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Subscriber receives published events.
type Subscriber func(Event)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus fans events out to subscribers. Typed subscribers are tracked
// directly so payloads keep their Go types; the watermill gochannel
// underneath is retained for middleware and distributed backends.
type Bus struct {
	mu     sync.RWMutex
	pubsub *gochannel.GoChannel

	byType map[Type][]subscriberEntry
	global []subscriberEntry

	nextID uint64
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 100},
			watermill.NopLogger{},
		),
		byType: make(map[Type][]subscriberEntry),
	}
}

// Subscribe registers fn for one event type and returns an
// unsubscribe function.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.byType[t] = append(b.byType[t], subscriberEntry{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.byType[t]
		for i, e := range subs {
			if e.id == id {
				b.byType[t] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers fn for every event type.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := atomic.AddUint64(&b.nextID, 1)
	b.global = append(b.global, subscriberEntry{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, e := range b.global {
			if e.id == id {
				b.global = append(b.global[:i], b.global[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to matching subscribers, each on its own
// goroutine so a slow subscriber never blocks the publisher.
func (b *Bus) Publish(ev Event) {
	for _, fn := range b.collect(ev.Type) {
		go fn(ev)
	}
}

// PublishSync delivers ev to matching subscribers in the calling
// goroutine, in registration order.
func (b *Bus) PublishSync(ev Event) {
	for _, fn := range b.collect(ev.Type) {
		fn(ev)
	}
}

func (b *Bus) collect(t Type) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	subs := make([]Subscriber, 0, len(b.byType[t])+len(b.global))
	for _, e := range b.byType[t] {
		subs = append(subs, e.fn)
	}
	for _, e := range b.global {
		subs = append(subs, e.fn)
	}
	return subs
}

// Close drops all subscribers and shuts down the transport.
// Publishing on a closed bus is a no-op.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.byType = make(map[Type][]subscriberEntry)
	b.global = nil
	b.mu.Unlock()
	return b.pubsub.Close()
}
