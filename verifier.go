package accounts

import (
	"context"
	"errors"
)

// Verifier validates a login email and secret against the credential store.
type Verifier struct {
	store  Identities
	logger Logger
}

// NewVerifier creates a password verifier over the credential store.
func NewVerifier(store Identities) *Verifier {
	return &Verifier{
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger sets the logger.
func (v *Verifier) WithLogger(logger Logger) *Verifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Verify looks up the identity by email and compares the secret against the
// stored bcrypt hash. The lookup is byte-exact against the stored value;
// emails are persisted as submitted, with no normalization layer. Verify has
// no side effects on the store.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*Identity, error) {
	identity, err := v.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrNoSuchAccount
		}
		return nil, err
	}

	if !identity.HasPassword() {
		// Created via an external provider only; there is no secret to
		// compare against.
		return nil, ErrBadCredentials
	}

	if err := ComparePasswordAndHash(password, identity.PasswordHash); err != nil {
		if errors.Is(err, ErrBadCredentials) {
			return nil, ErrBadCredentials
		}
		return nil, WrapStoreError(err, "password comparison failed")
	}

	return identity, nil
}
