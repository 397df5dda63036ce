package session

import (
	"context"
	"time"

	"github.com/chatcore-ai/chatcore/internal/event"
)

// startReaper launches the background eviction loop. Invoked exactly
// once, from the first session creation.
func (s *Store) startReaper() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.reaperCancel = cancel
	s.reaperDone = done
	s.mu.Unlock()

	go s.reapLoop(ctx, done)
}

// reapLoop fires on a fixed interval until Shutdown. A failed sweep
// is logged and retried on the next tick; the loop itself never
// exits on error.
func (s *Store) reapLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.log.Info().
		Dur("interval", s.cfg.ReaperInterval).
		Dur("idleTimeout", s.cfg.IdleTimeout).
		Msg("reaper started")

	ticker := time.NewTicker(s.cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reaper stopped")
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep evicts every session idle for at least the configured
// timeout. Expiry is judged from lastAccessedAt, which invocations
// refresh before touching the engine, so a session that is busy or
// about to be is never a candidate; as a second guard the sweep only
// removes sessions whose per-session lock it can take without
// blocking, skipping contended ones until the next cycle.
func (s *Store) sweep(now time.Time) {
	type victim struct {
		rec  *Record
		idle time.Duration
	}

	s.mu.Lock()
	var victims []victim
	for id, rec := range s.records {
		idle := now.Sub(rec.lastAccessedAt)
		if idle < s.cfg.IdleTimeout {
			continue
		}
		lock := s.locks[id]
		if !lock.TryLock() {
			s.log.Debug().Str("sessionID", id).Msg("expired session busy, skipping")
			continue
		}
		rec.active = false
		delete(s.records, id)
		delete(s.locks, id)
		lock.Unlock()
		victims = append(victims, victim{rec: rec, idle: idle})
	}
	s.mu.Unlock()

	for _, v := range victims {
		if err := closeEngine(v.rec.engine); err != nil {
			// One session's cleanup failure must not abort the sweep.
			s.log.Warn().Err(err).Str("sessionID", v.rec.id).Msg("engine close failed during sweep")
		}
		s.log.Info().
			Str("sessionID", v.rec.id).
			Dur("idle", v.idle).
			Msg("session reaped")
		s.bus.Publish(event.Event{
			Type: event.SessionReaped,
			Data: event.SessionReapedData{SessionID: v.rec.id, IdleFor: v.idle.String()},
		})
	}
}
