package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Identity is the durable account record. A row always carries at least one
// usable authentication method: a password hash, an external provider
// subject, or both.
type Identity struct {
	bun.BaseModel `bun:"table:identities,alias:idn"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	LoginHandle       string     `bun:"login_handle,notnull,unique" json:"login_handle,omitempty"`
	PasswordHash      string     `bun:"password_hash,nullzero" json:"-"`
	Provider          string     `bun:"provider,nullzero" json:"provider,omitempty"`
	ExternalSubjectID string     `bun:"external_subject_id,nullzero" json:"-"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasPassword reports whether the identity can authenticate with a password.
func (i *Identity) HasPassword() bool {
	return i != nil && i.PasswordHash != ""
}

// HasExternalSubject reports whether an external provider has been linked.
func (i *Identity) HasExternalSubject() bool {
	return i != nil && i.ExternalSubjectID != ""
}

// Session is server-side proof of a successful resolution. Tokens are opaque
// and unguessable; expiry rolls forward on every successful validation.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`

	ID         string    `bun:"id,pk" json:"id,omitempty"`
	IdentityID uuid.UUID `bun:"identity_id,notnull,type:uuid" json:"identity_id,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at,omitempty"`
	LastSeenAt time.Time `bun:"last_seen_at,notnull" json:"last_seen_at,omitempty"`
	ExpiresAt  time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
}

// ExpiredAt reports whether the session is past its expiry at the given time.
func (s *Session) ExpiredAt(now time.Time) bool {
	return s == nil || now.After(s.ExpiresAt)
}
