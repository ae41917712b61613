package scrum

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionManager maps opaque bearer tokens to live sessions and expires any
// session idle past its ttl. Expiry is checked lazily on lookup.
type SessionManager struct {
	mu       sync.Mutex
	db       *gorm.DB
	ttl      time.Duration
	sessions map[string]*managedSession
}

type managedSession struct {
	session  *Session
	lastSeen time.Time
}

// NewSessionManager creates a manager issuing sessions over the store
// connection with the given idle ttl.
func NewSessionManager(db *gorm.DB, ttl time.Duration) *SessionManager {
	return &SessionManager{
		db:       db,
		ttl:      ttl,
		sessions: make(map[string]*managedSession),
	}
}

// Create registers a fresh unauthenticated session and returns its token.
func (m *SessionManager) Create() (string, *Session) {
	token := uuid.New().String()
	session := NewSession(m.db)

	m.mu.Lock()
	m.sessions[token] = &managedSession{session: session, lastSeen: time.Now()}
	m.mu.Unlock()

	return token, session
}

// Lookup resolves a token to its session, refreshing the idle clock. An
// unknown or expired token yields nil.
func (m *SessionManager) Lookup(token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms, ok := m.sessions[token]
	if !ok {
		return nil
	}
	if time.Since(ms.lastSeen) > m.ttl {
		ms.session.Logout()
		delete(m.sessions, token)
		return nil
	}
	ms.lastSeen = time.Now()
	return ms.session
}

// Destroy logs out and removes the session for a token.
func (m *SessionManager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ms, ok := m.sessions[token]; ok {
		ms.session.Logout()
		delete(m.sessions, token)
	}
}

// Sweep removes every expired session. Intended for a periodic background
// ticker so abandoned sessions do not accumulate.
func (m *SessionManager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for token, ms := range m.sessions {
		if now.Sub(ms.lastSeen) > m.ttl {
			ms.session.Logout()
			delete(m.sessions, token)
		}
	}
}
