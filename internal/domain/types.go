package domain

import (
	"errors"
	"time"
)

type SessionID string
type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusRunning       Status = "running"
	StatusAwaitingInput Status = "waiting_input"
	StatusComplete      Status = "complete"
	StatusFailed        Status = "error"
)

// Terminal reports whether no further turns are possible on the session.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")

	// ErrTurnInProgress is returned when a message arrives while the stage
	// graph is still running the previous turn. The submitter receives it
	// synchronously; nothing is appended to the event log.
	ErrTurnInProgress = errors.New("turn not ready: session is still processing")

	ErrSessionClosed = errors.New("session is closed")
)

type Timestamp = time.Time
