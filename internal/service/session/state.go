package session

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a caption session.
type State int

const (
	// StateOpen - Session accepts fragments.
	StateOpen State = iota
	// StateClosed - Session was closed by its owner.
	StateClosed
	// StateDropped - Session was abandoned after a limit or transport failure.
	StateDropped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateDropped:
		return "DROPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (CLOSED or DROPPED).
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateDropped
}

var (
	ErrSessionClosed         = errors.New("session is closed")
	ErrSessionNotFound       = errors.New("session not found")
	ErrFragmentLimitExceeded = errors.New("session fragment limit exceeded")
)

// Lifecycle manages the state machine for a single session.
// Thread-safe for concurrent access.
//
//	OPEN ──Close()──→ CLOSED
//	  │
//	  └───Drop()───→ DROPPED
//
// Both terminal states reject further fragments.
type Lifecycle struct {
	mu        sync.RWMutex
	sessionId string
	state     State
}

// NewLifecycle creates a new session lifecycle in OPEN state.
func NewLifecycle(sessionId string) *Lifecycle {
	return &Lifecycle{
		sessionId: sessionId,
		state:     StateOpen,
	}
}

func (l *Lifecycle) SessionId() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionId
}

func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Accept returns nil while the session can take fragments.
func (l *Lifecycle) Accept() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state.IsTerminal() {
		return ErrSessionClosed
	}
	return nil
}

// IsClosed returns true if the session is in a terminal state.
func (l *Lifecycle) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

func (l *Lifecycle) IsDropped() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateDropped
}

// Close transitions to CLOSED. A dropped session stays DROPPED.
// Returns true if this call closed the session.
func (l *Lifecycle) Close() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateClosed
	return true
}

// Drop transitions to DROPPED. Returns false if already terminal.
func (l *Lifecycle) Drop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateDropped
	return true
}
