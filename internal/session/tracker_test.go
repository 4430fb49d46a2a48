package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartAndStop(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("user1", 100)

	s, exists := tracker.Get(100)
	assert.True(t, exists)
	assert.Equal(t, "user1", s.Owner)
	assert.Equal(t, StatusActive, s.Status)
	assert.False(t, s.StartedAt.IsZero())
	assert.True(t, s.EndedAt.IsZero())

	assert.True(t, tracker.Stop(100))

	s, _ = tracker.Get(100)
	assert.Equal(t, StatusEnded, s.Status)
	assert.False(t, s.EndedAt.IsZero())
}

func TestStopIsIdempotent(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("user1", 100)

	assert.True(t, tracker.Stop(100))
	ended, _ := tracker.Get(100)

	// A second stop changes nothing, including the recorded end time.
	assert.False(t, tracker.Stop(100))
	again, _ := tracker.Get(100)
	assert.Equal(t, StatusEnded, again.Status)
	assert.Equal(t, ended.EndedAt, again.EndedAt)
}

func TestStopUnknownSession(t *testing.T) {
	tracker := NewTracker()
	assert.False(t, tracker.Stop(999))
	_, exists := tracker.Get(999)
	assert.False(t, exists, "stop must not create state for unknown ids")
}

func TestEndedIsTerminal(t *testing.T) {
	tracker := NewTracker()
	tracker.Start("user1", 100)
	tracker.Stop(100)

	// Re-starting the same message id must not resurrect the session.
	tracker.Start("user1", 100)
	s, _ := tracker.Get(100)
	assert.Equal(t, StatusEnded, s.Status)
}

func TestSessionsCoexistPerOwner(t *testing.T) {
	tracker := NewTracker()
	tracker.now = func() time.Time { return time.Unix(1000, 0) }
	tracker.Start("user1", 100)
	tracker.Stop(100)

	tracker.now = func() time.Time { return time.Unix(2000, 0) }
	tracker.Start("user1", 200)

	sessions := tracker.OwnerSessions("user1")
	assert.Len(t, sessions, 2, "ended history coexists with the live share")

	statuses := map[int64]Status{}
	for _, s := range sessions {
		statuses[s.MessageID] = s.Status
	}
	assert.Equal(t, StatusEnded, statuses[100])
	assert.Equal(t, StatusActive, statuses[200])
	assert.Empty(t, tracker.OwnerSessions("user2"))
}
