package accounts

import (
	"context"
	"errors"
)

// Registrar creates password-backed identities.
type Registrar struct {
	store   Identities
	handles *HandleGenerator
	logger  Logger
}

// NewRegistrar creates a registrar over the credential store.
func NewRegistrar(store Identities) *Registrar {
	return &Registrar{
		store:   store,
		handles: NewHandleGenerator(store),
		logger:  defLogger{},
	}
}

// WithLogger sets the logger.
func (r *Registrar) WithLogger(logger Logger) *Registrar {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Register hashes the secret and persists a new identity. The email must not
// already be registered. The login handle is derived from the local part of
// the email, with a numeric suffix on collision.
func (r *Registrar) Register(ctx context.Context, email, password string) (*Identity, error) {
	if email == "" || password == "" {
		return nil, ErrNoEmptyString
	}

	if _, err := r.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	handle, err := r.handles.Generate(ctx, HandleFromEmail(email))
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		Email:        email,
		LoginHandle:  handle,
		PasswordHash: hash,
	}

	retried := false
	for {
		created, err := r.store.Create(ctx, identity)
		if err == nil {
			return created, nil
		}
		if !IsUniqueViolation(err) {
			return nil, WrapStoreError(err, "failed to create identity")
		}
		// The email index or the handle index tripped between the probe
		// and the insert. A fresh email probe tells the two apart.
		if _, probeErr := r.store.GetByEmail(ctx, email); probeErr == nil {
			return nil, ErrEmailAlreadyRegistered
		}
		if retried {
			return nil, WrapStoreError(err, "failed to create identity")
		}
		retried = true
		handle, err = r.handles.Generate(ctx, HandleFromEmail(email))
		if err != nil {
			return nil, err
		}
		identity.LoginHandle = handle
	}
}
