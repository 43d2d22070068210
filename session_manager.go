package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is the rolling window applied when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionManager issues, validates, and destroys sessions. Multiple live
// sessions per identity are allowed; validation rolls the expiry forward.
type SessionManager struct {
	store      SessionStore
	identities Identities
	ttl        time.Duration
	logger     Logger
	now        func() time.Time
}

// SessionOption configures the session manager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a session manager bound to a store.
func NewSessionManager(store SessionStore, identities Identities, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:      store,
		identities: identities,
		ttl:        DefaultSessionTTL,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

// WithSessionTTL overrides the rolling expiry window.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if ttl > 0 {
			sm.ttl = ttl
		}
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(sm *SessionManager) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithSessionClock overrides the time source, used by tests to reach expiry
// edges without sleeping.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(sm *SessionManager) {
		if now != nil {
			sm.now = now
		}
	}
}

// TTL returns the configured rolling window.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Create issues and persists a fresh session for the identity.
func (sm *SessionManager) Create(ctx context.Context, identityID uuid.UUID) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, WrapStoreError(err, "failed to generate session id")
	}

	now := sm.now()
	session := &Session{
		ID:         id,
		IdentityID: identityID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(sm.ttl),
	}

	if err := sm.store.Insert(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate resolves a session token to its identity. Absent or expired
// sessions fail with ErrSessionInvalid, as do sessions whose identity no
// longer exists. On success the expiry window rolls forward.
func (sm *SessionManager) Validate(ctx context.Context, sessionID string) (*Identity, error) {
	if sessionID == "" {
		return nil, ErrSessionInvalid
	}

	session, err := sm.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := sm.now()
	if session.ExpiredAt(now) {
		if err := sm.store.Delete(ctx, sessionID); err != nil {
			sm.logger.Warn("failed to remove expired session", "session_id", sessionID, "error", err)
		}
		return nil, ErrSessionInvalid
	}

	identity, err := sm.identities.GetByID(ctx, session.IdentityID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			// Orphaned session: the identity is gone, so the session must
			// fail validation rather than propagate a missing row.
			if delErr := sm.store.Delete(ctx, sessionID); delErr != nil {
				sm.logger.Warn("failed to remove orphaned session", "session_id", sessionID, "error", delErr)
			}
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if err := sm.store.Touch(ctx, sessionID, now, now.Add(sm.ttl)); err != nil {
		sm.logger.Warn("failed to roll session expiry", "session_id", sessionID, "error", err)
	}

	return identity, nil
}

// Destroy removes a session. It is idempotent.
func (sm *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return sm.store.Delete(ctx, sessionID)
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
