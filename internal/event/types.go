package event

import "github.com/chatcore-ai/chatcore/pkg/types"

// SessionCreatedData is the payload of session.created.
type SessionCreatedData struct {
	Info types.SessionInfo `json:"info"`
}

// SessionClosedData is the payload of session.closed.
type SessionClosedData struct {
	SessionID string `json:"sessionID"`
}

// SessionReapedData is the payload of session.reaped.
type SessionReapedData struct {
	SessionID string `json:"sessionID"`
	IdleFor   string `json:"idleFor"`
}

// MessageCompletedData is the payload of message.completed.
type MessageCompletedData struct {
	SessionID    string `json:"sessionID"`
	MessageCount int    `json:"messageCount"`
}
