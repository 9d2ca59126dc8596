package triviaquiz

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one player's live quiz. Lock it around a transition.
type Session struct {
	mu        sync.Mutex
	ID        string
	State     SessionState
	CreatedAt time.Time
}

// Lock serialises transitions on the session
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionRegistry keeps live sessions in memory. The oldest session is
// dropped once more than maxSessions exist.
type SessionRegistry struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	queue       []string // FIFO of session IDs
	maxSessions int
}

// NewSessionRegistry creates a registry. maxSessions <= 0 means unbounded.
func NewSessionRegistry(maxSessions int) *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[string]*Session),
		queue:       make([]string, 0),
		maxSessions: maxSessions,
	}
}

// Create starts a new idle session
func (r *SessionRegistry) Create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &Session{
		ID:        uuid.NewString(),
		State:     NewSessionState(),
		CreatedAt: time.Now(),
	}
	r.sessions[session.ID] = session
	r.queue = append(r.queue, session.ID)

	for r.maxSessions > 0 && len(r.queue) > r.maxSessions {
		oldest := r.queue[0]
		r.queue = r.queue[1:]
		delete(r.sessions, oldest)
	}
	return session
}

// Get looks up a session by ID
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// GetOrCreate returns the session for id or a new one when id is unknown
func (r *SessionRegistry) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if session, ok := r.Get(id); ok {
			return session, false
		}
	}
	return r.Create(), true
}

// Remove drops a session
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	for i, queued := range r.queue {
		if queued == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
}

// Size returns the number of live sessions
func (r *SessionRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queue)
}
