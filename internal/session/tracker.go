package session

import (
	"sync"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Session is one live-location share, keyed by the chat message id that
// carries its bubble. A participant can have several historical ended
// sessions; only the most recently started one is live on screen.
type Session struct {
	Owner     string
	MessageID int64
	Status    Status
	StartedAt time.Time
	EndedAt   time.Time
}

// Tracker records the lifecycle of location shares. Ended is terminal:
// once stopped, a session only exists as observational history.
type Tracker struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Start records a new active session. Starting a new share does not
// terminate the owner's prior ones; each session is independent.
func (t *Tracker) Start(ownerID string, messageID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sessions[messageID]; exists {
		return
	}
	t.sessions[messageID] = &Session{
		Owner:     ownerID,
		MessageID: messageID,
		Status:    StatusActive,
		StartedAt: t.now(),
	}
}

// Stop transitions the session to ended and records the end time.
// Idempotent: stopping an already-ended or unknown message id is a no-op
// and returns false. Callers still broadcast the end notification so
// clients can reconcile optimistic local state.
func (t *Tracker) Stop(messageID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, exists := t.sessions[messageID]
	if !exists || s.Status == StatusEnded {
		return false
	}
	s.Status = StatusEnded
	s.EndedAt = t.now()
	return true
}

func (t *Tracker) Get(messageID int64) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, exists := t.sessions[messageID]
	if !exists {
		return Session{}, false
	}
	return *s, true
}

// OwnerSessions returns every session ever started by the owner, active
// and ended alike.
func (t *Tracker) OwnerSessions(ownerID string) []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Session
	for _, s := range t.sessions {
		if s.Owner == ownerID {
			out = append(out, *s)
		}
	}
	return out
}
