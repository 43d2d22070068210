package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// SessionStore persists sessions. The durable implementation shares the
// relational store with identities so sessions survive short-lived hosts.
type SessionStore interface {
	Insert(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Touch advances the rolling expiry window.
	Touch(ctx context.Context, id string, lastSeenAt, expiresAt time.Time) error
	// Delete is idempotent; removing an absent session is not an error.
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessions struct {
	db *bun.DB
}

var _ SessionStore = (*sessions)(nil)

// NewSessionsRepository creates the bun-backed session store.
func NewSessionsRepository(db *bun.DB) SessionStore {
	return &sessions{db: db}
}

func (r *sessions) Insert(ctx context.Context, session *Session) error {
	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return WrapStoreError(err, "failed to persist session")
	}
	return nil
}

func (r *sessions) Get(ctx context.Context, id string) (*Session, error) {
	record := &Session{}
	if err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionInvalid
		}
		return nil, WrapStoreError(err, "session lookup failed")
	}
	return record, nil
}

func (r *sessions) Touch(ctx context.Context, id string, lastSeenAt, expiresAt time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*Session)(nil)).
		Set("last_seen_at = ?", lastSeenAt).
		Set("expires_at = ?", expiresAt).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return WrapStoreError(err, "failed to extend session")
	}
	return nil
}

func (r *sessions) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return WrapStoreError(err, "failed to delete session")
	}
	return nil
}

func (r *sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Session)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, WrapStoreError(err, "failed to sweep expired sessions")
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
