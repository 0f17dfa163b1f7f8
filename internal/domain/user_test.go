package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSignedIn(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"null session", Session{}, false},
		{"loading", Session{Loading: true}, false},
		{"user without tokens", Session{User: &User{ID: "u1"}}, false},
		{"tokens without user", Session{Tokens: &AuthTokens{AccessToken: "A1"}}, false},
		{"complete triple", Session{User: &User{ID: "u1"}, Tokens: &AuthTokens{AccessToken: "A1", RefreshToken: "R1"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sess.SignedIn())
		})
	}
}

func TestAuthResponseTokens(t *testing.T) {
	resp := AuthResponse{
		AccessToken:  "A1",
		RefreshToken: "R1",
		User:         User{ID: "u1"},
	}
	assert.Equal(t, AuthTokens{AccessToken: "A1", RefreshToken: "R1"}, resp.Tokens())
}

func TestUserJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(User{
		ID:        "u1",
		Email:     "a@b.com",
		AvatarURL: "https://cdn.example/a.png",
		IsPremium: true,
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "avatarUrl")
	assert.Contains(t, fields, "isPremium")
	assert.NotContains(t, fields, "AvatarURL")
}
