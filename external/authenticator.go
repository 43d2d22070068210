package external

import (
	"context"
	"time"

	"github.com/goliatone/go-accounts"
)

// ProviderTimeout bounds each round trip to the identity provider.
const ProviderTimeout = 10 * time.Second

// Authenticator drives the OAuth flow end to end: begin, callback, and the
// resolution of the fetched profile into an identity.
type Authenticator struct {
	providers map[string]Provider
	resolver  *Resolver
	states    StateCodec
	logger    accounts.Logger
}

type AuthenticatorOption func(*Authenticator) *Authenticator

func WithProvider(p Provider) AuthenticatorOption {
	return func(a *Authenticator) *Authenticator {
		if p != nil {
			a.providers[p.Name()] = p
		}
		return a
	}
}

func WithStateCodec(codec StateCodec) AuthenticatorOption {
	return func(a *Authenticator) *Authenticator {
		if codec != nil {
			a.states = codec
		}
		return a
	}
}

func WithAuthenticatorLogger(logger accounts.Logger) AuthenticatorOption {
	return func(a *Authenticator) *Authenticator {
		if logger != nil {
			a.logger = logger
		}
		return a
	}
}

func NewAuthenticator(resolver *Resolver, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		providers: map[string]Provider{},
		resolver:  resolver,
		states:    PlainStateCodec{},
		logger:    accounts.NewDefaultLogger(),
	}

	for _, opt := range opts {
		a = opt(a)
	}

	return a
}

// ListProviders returns the configured provider names.
func (a *Authenticator) ListProviders() []string {
	names := make([]string, 0, len(a.providers))
	for name := range a.providers {
		names = append(names, name)
	}
	return names
}

// BeginAuth builds the provider redirect URL carrying the encoded state.
func (a *Authenticator) BeginAuth(providerName string, intent Intent, redirectURL string) (string, error) {
	provider, ok := a.providers[providerName]
	if !ok {
		return "", ErrProviderNotFound
	}

	if !intent.Valid() {
		intent = IntentLogin
	}

	state, err := a.states.Encode(&State{
		Provider:    providerName,
		Intent:      intent,
		RedirectURL: redirectURL,
	})
	if err != nil {
		return "", err
	}

	return provider.AuthCodeURL(state), nil
}

// CompleteAuth exchanges the callback code, fetches the profile, and resolves
// it to an identity. Provider failures surface as the generic authentication
// failure so callers never leak upstream details.
func (a *Authenticator) CompleteAuth(ctx context.Context, providerName, code, stateToken string) (*Resolution, Intent, error) {
	provider, ok := a.providers[providerName]
	if !ok {
		return nil, IntentLogin, ErrProviderNotFound
	}

	state, err := a.states.Decode(stateToken)
	if err != nil {
		return nil, IntentLogin, ErrInvalidState
	}

	intent := state.Intent
	if !intent.Valid() {
		intent = IntentLogin
	}

	if state.Provider != "" && state.Provider != providerName {
		return nil, intent, ErrInvalidState
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, ProviderTimeout)
	defer cancel()

	token, err := provider.Exchange(exchangeCtx, code)
	if err != nil {
		a.logger.Warn("token exchange failed", "provider", providerName, "error", err)
		return nil, intent, ErrAuthenticationFailed
	}

	infoCtx, cancel := context.WithTimeout(ctx, ProviderTimeout)
	defer cancel()

	profile, err := provider.UserInfo(infoCtx, token)
	if err != nil {
		a.logger.Warn("user info fetch failed", "provider", providerName, "error", err)
		return nil, intent, ErrAuthenticationFailed
	}

	res, err := a.resolver.Resolve(ctx, profile, intent)
	if err != nil {
		return nil, intent, err
	}

	return res, intent, nil
}

// StateRedirect returns the post-auth redirect the state asked for.
func (a *Authenticator) StateRedirect(stateToken string) string {
	state, err := a.states.Decode(stateToken)
	if err != nil {
		return ""
	}
	return state.RedirectURL
}
