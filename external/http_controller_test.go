package external

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts"
)

func httpFixture(t *testing.T, provider *stubProvider) (*fiber.App, *stubIdentityStore) {
	t.Helper()

	store := newStubIdentityStore()
	resolver := NewResolver(store, WithResolverLogger(noopLogger{}))
	auth := NewAuthenticator(resolver,
		WithProvider(provider),
		WithAuthenticatorLogger(noopLogger{}),
	)

	sessions := accounts.NewSessionManager(
		accounts.NewMemorySessionStore(noopLogger{}),
		store,
		accounts.WithSessionLogger(noopLogger{}),
	)

	controller := NewHTTPController(auth, sessions, HTTPConfig{
		SuccessRedirect: "/dashboard",
		ErrorRedirect:   "/login?error=auth_failed",
	}).WithLogger(noopLogger{})

	app := fiber.New()
	controller.RegisterRoutes(app)

	return app, store
}

func TestBeginAuthRedirectsToProvider(t *testing.T) {
	app, _ := httpFixture(t, &stubProvider{name: "google"})

	req := httptest.NewRequest(http.MethodGet, "/auth/external/google?intent=signup", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "provider.test", location.Host)

	state, err := PlainStateCodec{}.Decode(location.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, IntentSignup, state.Intent)
}

func TestBeginAuthUnknownProviderRedirectsToError(t *testing.T) {
	app, _ := httpFixture(t, &stubProvider{name: "google"})

	req := httptest.NewRequest(http.MethodGet, "/auth/external/facebook", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login")
}

func TestCallbackSetsSessionCookie(t *testing.T) {
	provider := &stubProvider{
		name:    "google",
		profile: googleProfile("sub-1", "ana@example.com"),
	}
	app, store := httpFixture(t, provider)

	stateToken, err := PlainStateCodec{}.Encode(&State{Provider: "google", Intent: IntentSignup, RedirectURL: "/welcome"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet,
		"/auth/external/google/callback?code=code-1&state="+url.QueryEscape(stateToken), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/welcome", location.Path)
	assert.Equal(t, "true", location.Query().Get("new_account"))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == accounts.DefaultSessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	assert.Equal(t, 1, store.writes())
}

func TestCallbackMissingParams(t *testing.T) {
	app, store := httpFixture(t, &stubProvider{name: "google"})

	req := httptest.NewRequest(http.MethodGet, "/auth/external/google/callback", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "missing_params")
	assert.Zero(t, store.writes())
}

func TestCallbackProviderDeniedAccess(t *testing.T) {
	app, store := httpFixture(t, &stubProvider{name: "google"})

	req := httptest.NewRequest(http.MethodGet,
		"/auth/external/google/callback?error=access_denied", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "access_denied")
	assert.Zero(t, store.writes())
}

func TestCallbackConflictRedirectsWithCode(t *testing.T) {
	store := newStubIdentityStore()
	store.add(&accounts.Identity{
		Email:             "ana@example.com",
		LoginHandle:       "ana",
		Provider:          "github",
		ExternalSubjectID: "gh-9",
	})

	provider := &stubProvider{
		name:    "google",
		profile: googleProfile("sub-1", "ana@example.com"),
	}
	resolver := NewResolver(store, WithResolverLogger(noopLogger{}))
	auth := NewAuthenticator(resolver,
		WithProvider(provider),
		WithAuthenticatorLogger(noopLogger{}),
	)
	sessions := accounts.NewSessionManager(
		accounts.NewMemorySessionStore(noopLogger{}),
		store,
		accounts.WithSessionLogger(noopLogger{}),
	)
	controller := NewHTTPController(auth, sessions, HTTPConfig{}).WithLogger(noopLogger{})

	app := fiber.New()
	controller.RegisterRoutes(app)

	stateToken, err := PlainStateCodec{}.Encode(&State{Provider: "google", Intent: IntentSignup})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet,
		"/auth/external/google/callback?code=code-1&state="+url.QueryEscape(stateToken), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), TextCodeAccountConflict)
	assert.Zero(t, store.linkCalls)
	assert.Zero(t, store.createCalls)
}
