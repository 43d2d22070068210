package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Identities is the credential store. It is the only component that writes
// identity fields; every lookup it exposes is by a natural key.
type Identities interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	// GetByEmail matches the stored value byte-exact; there is no
	// normalization layer between callers and the column.
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetBySubject(ctx context.Context, provider, subjectID string) (*Identity, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	Create(ctx context.Context, record *Identity) (*Identity, error)
	// LinkExternal attaches a provider subject to an identity that lacks
	// one. It never overwrites an existing subject and never touches the
	// password hash.
	LinkExternal(ctx context.Context, id uuid.UUID, provider, subjectID string) (*Identity, error)
}

type identities struct {
	db *bun.DB
}

var _ Identities = (*identities)(nil)

// NewIdentitiesRepository creates the bun-backed credential store.
func NewIdentitiesRepository(db *bun.DB) Identities {
	return &identities{db: db}
}

func (r *identities) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	record := &Identity{}
	if err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, r.mapErr(err, "id")
	}
	return record, nil
}

func (r *identities) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	record := &Identity{}
	if err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, r.mapErr(err, "email")
	}
	return record, nil
}

func (r *identities) GetBySubject(ctx context.Context, provider, subjectID string) (*Identity, error) {
	record := &Identity{}
	if err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.provider = ? AND ?TableAlias.external_subject_id = ?", provider, subjectID).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, r.mapErr(err, "external_subject_id")
	}
	return record, nil
}

func (r *identities) HandleExists(ctx context.Context, handle string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*Identity)(nil)).
		Where("?TableAlias.login_handle = ?", handle).
		Count(ctx)
	if err != nil {
		return false, WrapStoreError(err, "failed to probe login handle")
	}
	return count > 0, nil
}

func (r *identities) Create(ctx context.Context, record *Identity) (*Identity, error) {
	prepareIdentityDefaults(record)

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *identities) LinkExternal(ctx context.Context, id uuid.UUID, provider, subjectID string) (*Identity, error) {
	now := time.Now()
	res, err := r.db.NewUpdate().
		Model((*Identity)(nil)).
		Set("provider = ?", provider).
		Set("external_subject_id = ?", subjectID).
		Set("updated_at = ?", now).
		Where("id = ? AND external_subject_id IS NULL", id).
		Exec(ctx)
	if err != nil {
		return nil, WrapStoreError(err, "failed to link external subject")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		// Row vanished or was linked concurrently; let the caller re-read.
		return nil, ErrIdentityNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *identities) mapErr(err error, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrIdentityNotFound
	}
	return WrapStoreError(err, "identity lookup by "+key+" failed")
}

func prepareIdentityDefaults(record *Identity) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
		record.UpdatedAt = &now
	}
}
