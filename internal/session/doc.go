// Package session is the concurrency core of chatcore: it maps opaque
// session identifiers to long-lived reasoning engines, serializes all
// work on one session behind a per-session lock while unrelated
// sessions proceed in parallel, streams translated engine events to
// callers in arrival order, and reclaims idle sessions in the
// background.
//
// Locking discipline: the Store's structural mutex protects the
// record and lock maps plus record bookkeeping fields, and is only
// ever held for map/field access. A session's per-session lock is
// held for the full duration of an engine invocation. Nothing ever
// blocks on a per-session lock while holding the structural mutex
// (the reaper's non-blocking TryLock is the only per-session
// acquisition attempted under it), and the structural mutex is never
// held across an engine invocation.
package session
