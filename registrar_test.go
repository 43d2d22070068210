package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrarCreatesIdentity(t *testing.T) {
	store := newStubIdentityStore()
	registrar := NewRegistrar(store).WithLogger(noopLogger{})

	identity, err := registrar.Register(context.Background(), "ana@example.com", "correct-horse")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", identity.Email)
	assert.Equal(t, "ana", identity.LoginHandle)
	assert.True(t, identity.HasPassword())
	assert.NoError(t, ComparePasswordAndHash("correct-horse", identity.PasswordHash))
}

func TestRegistrarRejectsDuplicateEmail(t *testing.T) {
	store := newStubIdentityStore()
	registrar := NewRegistrar(store).WithLogger(noopLogger{})

	_, err := registrar.Register(context.Background(), "ana@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = registrar.Register(context.Background(), "ana@example.com", "other-secret")
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestRegistrarRejectsEmptyInput(t *testing.T) {
	registrar := NewRegistrar(newStubIdentityStore()).WithLogger(noopLogger{})

	_, err := registrar.Register(context.Background(), "", "secret")
	assert.ErrorIs(t, err, ErrNoEmptyString)

	_, err = registrar.Register(context.Background(), "ana@example.com", "")
	assert.ErrorIs(t, err, ErrNoEmptyString)
}

func TestRegistrarSuffixesTakenHandle(t *testing.T) {
	store := newStubIdentityStore()
	store.add(&Identity{
		Email:       "ana@other.org",
		LoginHandle: "ana",
	})

	registrar := NewRegistrar(store).WithLogger(noopLogger{})

	identity, err := registrar.Register(context.Background(), "ana@example.com", "correct-horse")
	require.NoError(t, err)

	assert.NotEqual(t, "ana", identity.LoginHandle)
	assert.Regexp(t, `^ana\d{4}$`, identity.LoginHandle)
}
