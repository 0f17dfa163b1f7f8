package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/internal/store"
)

// Manager owns the authoritative in-memory session and the token cache that
// mirrors the credential store. It is constructed once at startup and shared
// by reference between the API client (which reads tokens and reports
// refresh outcomes) and the front-end (which drives the lifecycle).
//
// The in-memory session is mutated only by Load, SignIn, SignOut, Resync,
// and Invalidate. Token refreshes update the store and cache but leave the
// exposed session alone; a foreground Resync picks the rotated pair up.
type Manager struct {
	store  store.CredentialStore
	logger *slog.Logger

	mu          sync.Mutex
	access      string
	refresh     string
	session     domain.Session
	subscribers []chan struct{}
}

// NewManager creates a session manager over the given credential store.
// The session starts in the loading state until Load is called.
func NewManager(cs store.CredentialStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:   cs,
		logger:  logger,
		session: domain.Session{Loading: true},
	}
}

// Load reads the stored session once at startup. A complete triple populates
// the session optimistically, with no network validation: token correctness
// is discovered lazily on the first real API call. Anything else (missing
// keys, store failures, unparseable profile) resolves to a null session.
// Load always terminates the loading state.
func (m *Manager) Load(ctx context.Context) {
	user, tokens := m.readStored(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if user != nil && tokens != nil {
		m.access = tokens.AccessToken
		m.refresh = tokens.RefreshToken
		m.session = domain.Session{User: user, Tokens: tokens}
	} else {
		m.session = domain.Session{}
	}
}

// Current returns a snapshot of the session.
func (m *Manager) Current() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// SignIn persists the user and token pair, then updates the in-memory
// session. Store writes land first so a process killed mid-sign-in never
// leaves an exposed session without its backing store.
func (m *Manager) SignIn(ctx context.Context, user domain.User, tokens domain.AuthTokens) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Join(errors.New("encode user"), err)
	}

	if err := m.store.Set(ctx, store.KeyAccessToken, tokens.AccessToken); err != nil {
		return errors.Join(errors.New("persist access token"), err)
	}
	if err := m.store.Set(ctx, store.KeyRefreshToken, tokens.RefreshToken); err != nil {
		return errors.Join(errors.New("persist refresh token"), err)
	}
	if err := m.store.Set(ctx, store.KeyUser, string(userJSON)); err != nil {
		return errors.Join(errors.New("persist user"), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = tokens.AccessToken
	m.refresh = tokens.RefreshToken
	m.session = domain.Session{User: &user, Tokens: &tokens}
	return nil
}

// SignOut clears the token cache, the in-memory session, and the credential
// store. In-memory state is cleared unconditionally, before the store is
// touched, so the UI never shows a signed-in view after an explicit sign-out
// even when store deletes fail.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.access = ""
	m.refresh = ""
	m.session = domain.Session{}
	m.mu.Unlock()

	return m.clearStore(ctx)
}

// Resync overwrites the cache and session from whatever is currently
// persisted. Called when the app returns to the foreground, to pick up
// tokens refreshed by a request that completed while backgrounded or a
// session invalidated by another process.
func (m *Manager) Resync(ctx context.Context) {
	user, tokens := m.readStored(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if user != nil && tokens != nil {
		m.access = tokens.AccessToken
		m.refresh = tokens.RefreshToken
		m.session = domain.Session{User: user, Tokens: tokens}
	} else {
		m.access = ""
		m.refresh = ""
		m.session = domain.Session{}
	}
}

// Invalidated returns a channel that receives a signal whenever the session
// is terminally invalidated (refresh impossible or rejected). The
// presentation layer routes to sign-in on delivery; the session core stays
// free of any navigation concern.
func (m *Manager) Invalidated() <-chan struct{} {
	ch := make(chan struct{}, 1)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

// readStored fetches the credential triple, treating any failure as an
// absent session. Never returns a partial result.
func (m *Manager) readStored(ctx context.Context) (*domain.User, *domain.AuthTokens) {
	access, errA := m.store.Get(ctx, store.KeyAccessToken)
	refresh, errR := m.store.Get(ctx, store.KeyRefreshToken)
	userJSON, errU := m.store.Get(ctx, store.KeyUser)

	if errA != nil || errR != nil || errU != nil {
		for _, err := range []error{errA, errR, errU} {
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				m.logger.WarnContext(ctx, "credential store read failed, treating as signed out",
					slog.String("error", err.Error()))
				break
			}
		}
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		m.logger.WarnContext(ctx, "stored user profile unreadable, treating as signed out",
			slog.String("error", err.Error()))
		return nil, nil
	}

	return &user, &domain.AuthTokens{AccessToken: access, RefreshToken: refresh}
}

// clearStore deletes the credential triple, returning the first failure but
// attempting every delete.
func (m *Manager) clearStore(ctx context.Context) error {
	var firstErr error
	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeyUser} {
		if err := m.store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// notifyInvalidated signals every subscriber without blocking.
func (m *Manager) notifyInvalidated() {
	for _, ch := range m.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
