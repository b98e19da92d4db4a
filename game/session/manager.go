package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session ID")
)

// maxIDAttempts bounds the re-roll loop in Create. A UUIDv4 collision is
// astronomically unlikely; hitting the bound means the entropy source is broken.
const maxIDAttempts = 8

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*Session
	logger   *zap.Logger
	now      func() time.Time
	newID    func() (string, error)
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
		now:      time.Now,
		newID:    generateSessionID,
	}
}

// Create inserts a new unbound session under a fresh ID
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := m.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session ID: %w", err)
		}
		if id == "" {
			return nil, ErrInvalidSessionID
		}
		if _, exists := m.sessions[id]; exists {
			m.logger.Warn("session ID collision, regenerating", zap.String("session_id", id))
			continue
		}

		session := newSession(id, m.now())
		m.sessions[id] = session
		return session, nil
	}

	return nil, fmt.Errorf("failed to generate a unique session ID after %d attempts", maxIDAttempts)
}

// Get retrieves a session by ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all live sessions
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}

	session.touch(m.now())
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID returns a random UUIDv4 drawn from crypto/rand
func generateSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
