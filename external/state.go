package external

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Intent says why the user started the flow. It never changes which identity
// a resolution lands on, only which error a conflict surfaces as.
type Intent string

const (
	IntentLogin  Intent = "login"
	IntentSignup Intent = "signup"
)

// Valid reports whether the intent is a known value.
func (i Intent) Valid() bool {
	return i == IntentLogin || i == IntentSignup
}

// StateCodec encodes the OAuth state parameter for the round trip through the
// provider.
type StateCodec interface {
	Encode(state *State) (string, error)
	Decode(token string) (*State, error)
}

// State contains the data carried in the OAuth state parameter.
type State struct {
	Nonce       string `json:"n"`
	Provider    string `json:"p"`
	Intent      Intent `json:"i"`
	RedirectURL string `json:"r,omitempty"`
	IssuedAt    int64  `json:"iat"`
}

// PlainStateCodec serializes state as unsigned base64 JSON. The state is
// opaque to the provider but readable and forgeable by the client; callers
// needing CSRF protection must layer a signed codec on top.
type PlainStateCodec struct{}

// Encode serializes the state.
func (PlainStateCodec) Encode(state *State) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	if state.IssuedAt == 0 {
		state.IssuedAt = time.Now().Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	return base64.URLEncoding.EncodeToString(payload), nil
}

// Decode deserializes the state.
func (PlainStateCodec) Decode(token string) (*State, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, ErrInvalidState
	}

	return &state, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
