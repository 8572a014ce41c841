package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds one conversation's mutable state. All access goes
// through WithLock so history mutation is serialized per session;
// distinct sessions never contend.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	history *History
}

// WithLock runs fn with exclusive access to the session history.
func (s *Session) WithLock(fn func(h *History)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.history)
}

// SessionManager owns all live sessions. Constructed once at startup
// and passed explicitly to callers.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxTurns int
}

// NewSessionManager creates a manager whose sessions keep at most
// maxTurns history entries.
func NewSessionManager(maxTurns int) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// Create starts a new session and returns it.
func (m *SessionManager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		history:   NewHistory(m.maxTurns),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given ID, or nil.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// GetOrCreate returns the session with the given ID, creating one when
// the ID is unknown or empty.
func (m *SessionManager) GetOrCreate(id string) *Session {
	if s := m.Get(id); s != nil {
		return s
	}
	return m.Create()
}

// Delete removes a session.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
