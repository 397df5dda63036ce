package session

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatcore-ai/chatcore/internal/engine"
	"github.com/chatcore-ai/chatcore/internal/event"
	"github.com/chatcore-ai/chatcore/internal/logging"
	"github.com/chatcore-ai/chatcore/pkg/types"
)

const (
	// DefaultIdleTimeout is how long a session may sit idle before
	// the reaper may evict it.
	DefaultIdleTimeout = time.Hour
	// DefaultReaperInterval is the sweep frequency.
	DefaultReaperInterval = 5 * time.Minute
)

// Config tunes the store's eviction policy.
type Config struct {
	IdleTimeout    time.Duration
	ReaperInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ReaperInterval <= 0 {
		c.ReaperInterval = DefaultReaperInterval
	}
	return c
}

// Record is the in-memory state of one session. The engine field is
// guarded by the session's per-session lock; the bookkeeping fields
// are guarded by the store's structural mutex.
type Record struct {
	id             string
	engine         engine.Engine
	createdAt      time.Time
	lastAccessedAt time.Time
	messageCount   int
	active         bool
}

// info snapshots the record. Caller must hold the structural mutex.
func (r *Record) info() types.SessionInfo {
	return types.SessionInfo{
		SessionID:      r.id,
		CreatedAt:      r.createdAt,
		LastAccessedAt: r.lastAccessedAt,
		MessageCount:   r.messageCount,
		Active:         r.active,
	}
}

// Store owns every session record and its per-session lock. All map
// access goes through the structural mutex, which is never held
// across an engine invocation.
type Store struct {
	cfg     Config
	factory engine.Factory
	bus     *event.Bus
	log     zerolog.Logger

	mu      sync.Mutex
	records map[string]*Record
	locks   map[string]*sync.Mutex

	reaperOnce   sync.Once
	reaperCancel context.CancelFunc
	reaperDone   chan struct{}
}

// NewStore creates an empty store. The reaper starts lazily on the
// first session creation and runs until Shutdown.
func NewStore(cfg Config, factory engine.Factory, bus *event.Bus) *Store {
	if bus == nil {
		bus = event.NewBus()
	}
	return &Store{
		cfg:     cfg.withDefaults(),
		factory: factory,
		bus:     bus,
		log:     logging.With().Str("component", "session").Logger(),
		records: make(map[string]*Record),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Bus returns the lifecycle event bus.
func (s *Store) Bus() *event.Bus { return s.bus }

// GetOrCreate returns the record and per-session lock for id,
// creating both atomically when the id is unknown. Concurrent first
// references to the same id agree on a single record and lock.
func (s *Store) GetOrCreate(id string) (*Record, *sync.Mutex, bool, error) {
	s.mu.Lock()
	if rec, ok := s.records[id]; ok {
		lock := s.locks[id]
		s.mu.Unlock()
		return rec, lock, false, nil
	}

	eng, err := s.factory.New()
	if err != nil {
		s.mu.Unlock()
		return nil, nil, false, err
	}

	now := time.Now()
	rec := &Record{
		id:             id,
		engine:         eng,
		createdAt:      now,
		lastAccessedAt: now,
		active:         true,
	}
	lock := &sync.Mutex{}
	s.records[id] = rec
	s.locks[id] = lock
	info := rec.info()
	s.mu.Unlock()

	s.reaperOnce.Do(s.startReaper)

	s.log.Debug().Str("sessionID", id).Msg("session created")
	s.bus.Publish(event.Event{
		Type: event.SessionCreated,
		Data: event.SessionCreatedData{Info: info},
	})
	return rec, lock, true, nil
}

// Get returns a snapshot of the session, or false when the id is
// unknown. Unknown ids are an expected outcome, not an error.
func (s *Store) Get(id string) (types.SessionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return types.SessionInfo{}, false
	}
	return rec.info(), true
}

// ListActive returns a point-in-time snapshot of all active
// sessions, sorted by id. The structural mutex is held only for the
// copy.
func (s *Store) ListActive() []types.SessionInfo {
	s.mu.Lock()
	infos := make([]types.SessionInfo, 0, len(s.records))
	for _, rec := range s.records {
		if rec.active {
			infos = append(infos, rec.info())
		}
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].SessionID < infos[j].SessionID })
	return infos
}

// Close removes a session explicitly. It waits for any in-flight
// invocation by taking the per-session lock before removal, so
// removal and invocation never overlap. Returns false when the id is
// unknown or already closed.
func (s *Store) Close(id string) bool {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	lock := s.locks[id]
	rec.active = false
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		// Reaped while we waited for the lock.
		s.mu.Unlock()
		return false
	}
	delete(s.records, id)
	delete(s.locks, id)
	s.mu.Unlock()

	if err := closeEngine(rec.engine); err != nil {
		s.log.Warn().Err(err).Str("sessionID", id).Msg("engine close failed")
	}

	s.log.Info().Str("sessionID", id).Msg("session closed")
	s.bus.Publish(event.Event{
		Type: event.SessionClosed,
		Data: event.SessionClosedData{SessionID: id},
	})
	return true
}

// acquire resolves the session and takes its per-session lock,
// retrying when the record was removed (reaped or closed) while the
// caller waited on the lock. On success the returned record is the
// one currently in the store, so removal and the caller's invocation
// cannot overlap.
func (s *Store) acquire(id string) (*Record, *sync.Mutex, error) {
	for {
		rec, lock, _, err := s.GetOrCreate(id)
		if err != nil {
			return nil, nil, err
		}
		lock.Lock()

		s.mu.Lock()
		current := s.records[id] == rec
		s.mu.Unlock()
		if current {
			return rec, lock, nil
		}
		lock.Unlock()
	}
}

// begin marks the start of an invocation: refreshes the access
// timestamp and counts the message. Called with the per-session lock
// held, before the engine is invoked, so the reaper never selects a
// session that is about to start work.
func (s *Store) begin(rec *Record) {
	s.mu.Lock()
	rec.lastAccessedAt = time.Now()
	rec.messageCount++
	s.mu.Unlock()
}

// completed publishes the message.completed notification.
func (s *Store) completed(rec *Record) {
	s.mu.Lock()
	data := event.MessageCompletedData{
		SessionID:    rec.id,
		MessageCount: rec.messageCount,
	}
	s.mu.Unlock()

	s.bus.Publish(event.Event{Type: event.MessageCompleted, Data: data})
}

// Shutdown stops the reaper and waits for it to exit. Sessions are
// left in place; the process is going away anyway.
func (s *Store) Shutdown() {
	s.mu.Lock()
	cancel, done := s.reaperCancel, s.reaperDone
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// closeEngine releases engine-held resources when the engine opts in
// via io.Closer.
func closeEngine(eng engine.Engine) error {
	if c, ok := eng.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
