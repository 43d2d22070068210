package external

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound     = "external_provider_not_found"
	TextCodeInvalidState         = "external_invalid_state"
	TextCodeIncompleteProfile    = "external_incomplete_profile"
	TextCodeAccountConflict      = "external_account_conflict"
	TextCodeDifferentProvider    = "external_existing_account_different_provider"
	TextCodeAuthenticationFailed = "external_authentication_failed"
	TextCodeAccountCreation      = "external_account_creation_failed"
	TextCodeTokenExchangeFail    = "external_token_exchange_failed"
	TextCodeUserInfoFail         = "external_user_info_failed"
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = errors.New("external provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidState is returned when the OAuth state cannot be decoded.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrIncompleteExternalProfile is returned when the provider profile is
// missing the subject identifier or the email.
var ErrIncompleteExternalProfile = errors.New("external profile is missing required fields", errors.CategoryBadInput).
	WithTextCode(TextCodeIncompleteProfile).
	WithCode(errors.CodeBadRequest)

// ErrAccountConflict is returned on signup when the email belongs to an
// identity already bound to a different provider subject.
var ErrAccountConflict = errors.New(
	"an account with this email already exists; sign in with your password, link this provider from account settings, or use a different provider account",
	errors.CategoryConflict).
	WithTextCode(TextCodeAccountConflict).
	WithCode(errors.CodeConflict)

// ErrExistingAccountDifferentProvider is returned on login when the email
// belongs to an identity bound to a different provider subject.
var ErrExistingAccountDifferentProvider = errors.New(
	"this email is registered with a different sign-in method; use your password to sign in",
	errors.CategoryConflict).
	WithTextCode(TextCodeDifferentProvider).
	WithCode(errors.CodeConflict)

// ErrAuthenticationFailed is the generic resolver failure.
var ErrAuthenticationFailed = errors.New("external authentication failed", errors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationFailed).
	WithCode(errors.CodeUnauthorized)

// ErrAccountCreationFailed is returned when a new identity could not be
// persisted for the external profile.
var ErrAccountCreationFailed = errors.New("could not create an account for this profile", errors.CategoryInternal).
	WithTextCode(TextCodeAccountCreation).
	WithCode(errors.CodeInternal)

// ErrTokenExchangeFailed is returned when a provider token exchange fails.
var ErrTokenExchangeFailed = errors.New("token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(errors.CodeUnauthorized)

// ErrUserInfoFailed is returned when fetching the provider profile fails.
var ErrUserInfoFailed = errors.New("failed to fetch user info", errors.CategoryAuth).
	WithTextCode(TextCodeUserInfoFail).
	WithCode(errors.CodeUnauthorized)
