package accounts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controllerFixture(t *testing.T) (*fiber.App, *stubIdentityStore) {
	t.Helper()

	store := newStubIdentityStore()
	sessions := NewSessionManager(NewMemorySessionStore(noopLogger{}), store,
		WithSessionLogger(noopLogger{}),
	)

	controller := NewController(
		NewVerifier(store).WithLogger(noopLogger{}),
		NewRegistrar(store).WithLogger(noopLogger{}),
		sessions,
		WithControllerLogger(noopLogger{}),
	)

	app := fiber.New()
	controller.RegisterRoutes(app)

	return app, store
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == DefaultSessionCookieName {
			return cookie
		}
	}
	return nil
}

func TestSignupEndpoint(t *testing.T) {
	app, _ := controllerFixture(t)

	resp := postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	body := decodeBody(t, resp)
	identity := body["identity"].(map[string]any)
	assert.Equal(t, "ana@example.com", identity["email"])
	assert.Equal(t, "ana", identity["login_handle"])
	_, leaked := identity["password_hash"]
	assert.False(t, leaked, "password hash must never serialize")
}

func TestSignupDuplicateEmail(t *testing.T) {
	app, _ := controllerFixture(t)

	resp := postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "other-secret",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, TextCodeEmailExists, body["text_code"])
}

func TestSignupValidation(t *testing.T) {
	app, _ := controllerFixture(t)

	resp := postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "not-an-email",
		"password": "correct-horse",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginEndpoint(t *testing.T) {
	app, _ := controllerFixture(t)

	resp := postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	signupIdentity := decodeBody(t, resp)["identity"].(map[string]any)

	resp = postJSON(t, app, "/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	loginIdentity := decodeBody(t, resp)["identity"].(map[string]any)
	assert.Equal(t, signupIdentity["id"], loginIdentity["id"])
}

func TestLoginFailures(t *testing.T) {
	app, _ := controllerFixture(t)

	resp := postJSON(t, app, "/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, TextCodeNoSuchAccount, body["text_code"])

	resp = postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, app, "/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, TextCodeInvalidCreds, body["text_code"])
}

func TestMeAndLogout(t *testing.T) {
	app, _ := controllerFixture(t)

	resp := postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Token revoked; the same cookie no longer resolves.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestMeWithoutSession(t *testing.T) {
	app, _ := controllerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestMeWithBearerToken(t *testing.T) {
	app, _ := controllerFixture(t)

	resp := postJSON(t, app, "/auth/signup", map[string]string{
		"email":    "ana@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := decodeBody(t, resp)["session_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
