package accounts

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore keeps sessions in process memory. It is a degraded mode
// for environments without a reachable relational store: sessions vanish on
// restart, which defeats the durability contract, so construction logs a
// warning operators can alert on.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates the in-memory fallback store.
func NewMemorySessionStore(logger Logger) *MemorySessionStore {
	if logger == nil {
		logger = defLogger{}
	}
	logger.Warn("in-memory session store active; sessions will not survive process restarts")

	return &MemorySessionStore{
		sessions: make(map[string]Session),
	}
}

func (m *MemorySessionStore) Insert(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionInvalid
	}
	copy := session
	return &copy, nil
}

func (m *MemorySessionStore) Touch(ctx context.Context, id string, lastSeenAt, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil
	}
	session.LastSeenAt = lastSeenAt
	session.ExpiresAt = expiresAt
	m.sessions[id] = session
	return nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}
