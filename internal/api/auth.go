package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BasilJohn/GraceGuide/internal/domain"
)

// LoginWithGoogle exchanges a Google identity token for a backend session.
// The call skips credential attachment: a stale bearer on a login request
// would only confuse the backend. Persisting the result is the session
// manager's job, not the client's.
func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (*domain.AuthResponse, error) {
	body, err := json.Marshal(map[string]string{"idToken": idToken})
	if err != nil {
		return nil, fmt.Errorf("encode google login: %w", err)
	}

	var out domain.AuthResponse
	if err := c.do(ctx, &request{
		method:   "POST",
		path:     "auth/google",
		body:     body,
		skipAuth: true,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginWithApple exchanges an Apple identity token for a backend session.
// Apple may omit the refresh token on repeat sign-ins.
func (c *Client) LoginWithApple(ctx context.Context, identityToken string) (*domain.AuthResponse, error) {
	body, err := json.Marshal(map[string]string{"identityToken": identityToken})
	if err != nil {
		return nil, fmt.Errorf("encode apple login: %w", err)
	}

	var out domain.AuthResponse
	if err := c.do(ctx, &request{
		method:   "POST",
		path:     "auth/apple",
		body:     body,
		skipAuth: true,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser fetches the authenticated user's profile.
func (c *Client) GetUser(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, &request{method: "GET", path: "auth/getUser"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount permanently deletes the authenticated user's account on the
// backend. Irreversible; clearing the local session afterwards is the
// caller's responsibility.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, &request{method: "DELETE", path: "auth/me"}, nil)
}
