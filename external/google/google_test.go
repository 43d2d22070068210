package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-accounts/external"
)

func TestAuthCodeURL(t *testing.T) {
	provider := New(Config{
		ClientID:    "client-1",
		CallbackURL: "https://app.test/auth/external/google/callback",
	})

	rawURL := provider.AuthCodeURL("state-token")
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "code-1", r.Form.Get("code"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "atk-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        "openid email",
		})
	}))
	defer server.Close()

	provider := New(Config{
		ClientID:     "client-1",
		ClientSecret: "secret",
		TokenURL:     server.URL,
	})

	token, err := provider.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "atk-1", token.AccessToken)
	assert.False(t, token.ExpiresAt.IsZero())
	assert.Equal(t, []string{"openid", "email"}, token.Scopes)
}

func TestExchangeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "code expired",
		})
	}))
	defer server.Close()

	provider := New(Config{TokenURL: server.URL})

	_, err := provider.Exchange(context.Background(), "stale-code")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid_grant"))
}

func TestUserInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer atk-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"sub":            "sub-1",
			"email":          "ana@example.com",
			"email_verified": true,
			"name":           "Ana Martins",
			"picture":        "https://img.test/ana.png",
		})
	}))
	defer server.Close()

	provider := New(Config{UserInfoURL: server.URL})

	profile, err := provider.UserInfo(context.Background(), &external.Token{AccessToken: "atk-1"})
	require.NoError(t, err)
	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "sub-1", profile.SubjectID)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.True(t, profile.Complete())
}
