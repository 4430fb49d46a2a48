package registry

import (
	"sync"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/samber/lo"
)

// Registry is the authoritative in-memory table of connected participants
// and their last-known coordinates. It is the only component that mutates
// participant records.
type Registry struct {
	mu           sync.RWMutex
	participants map[string]*domain.Participant
}

func New() *Registry {
	return &Registry{
		participants: make(map[string]*domain.Participant),
	}
}

// Add inserts a participant with null coordinates. Returns false if the id
// is already present, in which case the table is left untouched.
func (r *Registry) Add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.participants[id]; exists {
		return false
	}
	r.participants[id] = &domain.Participant{ID: id}
	return true
}

// UpdateLocation mutates the participant's coordinates in place and
// returns the updated record. Returns false if the id is no longer
// tracked, which happens when an update races a disconnect.
func (r *Registry) UpdateLocation(id string, lat, lon float64) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.participants[id]
	if !exists {
		return domain.Participant{}, false
	}
	p.Latitude = &lat
	p.Longitude = &lon
	return copyParticipant(p), true
}

// Remove deletes the participant. Safe to call for an absent id.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.participants[id]; !exists {
		return false
	}
	delete(r.participants, id)
	return true
}

// Snapshot returns a point-in-time copy of the table. Later mutations do
// not affect a snapshot already taken.
func (r *Registry) Snapshot() map[string]domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]domain.Participant, len(r.participants))
	for id, p := range r.participants {
		snapshot[id] = copyParticipant(p)
	}
	return snapshot
}

// IDs lists currently connected participant ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.participants)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// copyParticipant deep-copies the coordinate pointers so snapshot holders
// never alias the live record.
func copyParticipant(p *domain.Participant) domain.Participant {
	out := domain.Participant{ID: p.ID}
	if p.Latitude != nil {
		lat := *p.Latitude
		out.Latitude = &lat
	}
	if p.Longitude != nil {
		lon := *p.Longitude
		out.Longitude = &lon
	}
	return out
}
