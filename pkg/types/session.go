// Package types contains the wire-visible types shared between the
// chatcore server and its clients.
package types

import "time"

// SessionInfo is the caller-facing snapshot of one conversation session.
// Timestamps marshal as RFC3339 (ISO-8601).
type SessionInfo struct {
	SessionID      string    `json:"sessionID"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	MessageCount   int       `json:"messageCount"`
	Active         bool      `json:"active"`
}
