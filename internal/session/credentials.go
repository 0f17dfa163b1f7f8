package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/internal/store"
)

// The methods in this file form the credential surface consumed by the API
// client: token reads on the request path, token/profile writes on the
// refresh path, and terminal invalidation.

// AccessToken returns the current access token, reading through to the
// credential store on a cache miss. An empty result means the request
// proceeds unauthenticated; the backend rejects it if auth was required.
func (m *Manager) AccessToken(ctx context.Context) string {
	m.mu.Lock()
	if m.access != "" {
		token := m.access
		m.mu.Unlock()
		return token
	}
	m.mu.Unlock()

	token, err := m.store.Get(ctx, store.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.WarnContext(ctx, "access token read failed",
				slog.String("error", err.Error()))
		}
		return ""
	}

	m.mu.Lock()
	m.access = token
	m.mu.Unlock()
	return token
}

// RefreshToken returns the current refresh token, reading through to the
// credential store on a cache miss.
func (m *Manager) RefreshToken(ctx context.Context) string {
	m.mu.Lock()
	if m.refresh != "" {
		token := m.refresh
		m.mu.Unlock()
		return token
	}
	m.mu.Unlock()

	token, err := m.store.Get(ctx, store.KeyRefreshToken)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.WarnContext(ctx, "refresh token read failed",
				slog.String("error", err.Error()))
		}
		return ""
	}

	m.mu.Lock()
	m.refresh = token
	m.mu.Unlock()
	return token
}

// StoreTokens persists a freshly minted token pair to the credential store
// and the cache together. The exposed session is deliberately left alone:
// it is resynced on the next foreground transition, not on every refresh.
func (m *Manager) StoreTokens(ctx context.Context, tokens domain.AuthTokens) error {
	if err := m.store.Set(ctx, store.KeyAccessToken, tokens.AccessToken); err != nil {
		return errors.Join(errors.New("persist access token"), err)
	}
	if err := m.store.Set(ctx, store.KeyRefreshToken, tokens.RefreshToken); err != nil {
		return errors.Join(errors.New("persist refresh token"), err)
	}

	m.mu.Lock()
	m.access = tokens.AccessToken
	m.refresh = tokens.RefreshToken
	m.mu.Unlock()
	return nil
}

// StoreUser persists an opportunistically re-fetched profile.
func (m *Manager) StoreUser(ctx context.Context, user domain.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Join(errors.New("encode user"), err)
	}
	return m.store.Set(ctx, store.KeyUser, string(userJSON))
}

// Invalidate clears all credentials and the in-memory session, then signals
// subscribers that the session is gone. Called by the refresh protocol when
// recovery is impossible: no refresh token, or the refresh token itself
// rejected by the backend.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	m.access = ""
	m.refresh = ""
	m.session = domain.Session{}
	m.mu.Unlock()

	err := m.clearStore(ctx)

	// Subscribers are notified after state is cleared, so a navigation
	// triggered by the signal never observes a stale signed-in session.
	m.mu.Lock()
	m.notifyInvalidated()
	m.mu.Unlock()

	return err
}
