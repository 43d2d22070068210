package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound = "identity_not_found"
	TextCodeNoSuchAccount    = "no_such_account"
	TextCodeInvalidCreds     = "invalid_credentials"
	TextCodeSessionInvalid   = "session_invalid"
	TextCodeEmailExists      = "account_email_exists"
	TextCodeEmptyPassword    = "empty_password"
)

// ErrIdentityNotFound is the error stores return for missing identities.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoSuchAccount is returned when a login email matches no identity.
var ErrNoSuchAccount = errors.New("no account found for that email address, sign up first", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSuchAccount).
	WithCode(errors.CodeNotFound)

// ErrBadCredentials is returned when the supplied secret does not match.
var ErrBadCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrSessionInvalid is returned for absent, expired, or orphaned sessions.
var ErrSessionInvalid = errors.New("session is invalid or has expired", errors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrEmailAlreadyRegistered is returned when signup hits an existing email.
var ErrEmailAlreadyRegistered = errors.New("an account with that email address already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value cannot be an empty string", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsUniqueViolation will check for unique index violations across the SQL
// drivers we deploy against (sqlite, postgres).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// WrapStoreError tags a transient store failure as a generic internal error,
// keeping it distinct from the identity-specific taxonomy so callers can
// decide to retry.
func WrapStoreError(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithCode(errors.CodeInternal)
}
