package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/internal/session"
	"github.com/BasilJohn/GraceGuide/internal/store"
	apperrors "github.com/BasilJohn/GraceGuide/pkg/errors"
	"github.com/BasilJohn/GraceGuide/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		HTTP: httpclient.Config{
			Timeout:         5 * time.Second,
			MaxRetries:      0,
			RetryWaitMin:    time.Millisecond,
			RetryWaitMax:    time.Millisecond,
			MaxConnsPerHost: 10,
		},
		RefreshTimeout: 2 * time.Second,
	}
}

// newSignedInClient builds a client over a real session manager seeded with
// the A1/R1 pair and user u1.
func newSignedInClient(t *testing.T, baseURL string) (*Client, *session.Manager, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mgr := session.NewManager(mem, testLogger())
	mgr.Load(context.Background())
	require.NoError(t, mgr.SignIn(context.Background(),
		domain.User{ID: "u1", Email: "a@b.com"},
		domain.AuthTokens{AccessToken: "A1", RefreshToken: "R1"},
	))
	return New(fastConfig(baseURL), mgr, testLogger()), mgr, mem
}

// refreshBackend is a configurable fake of the backend's auth surface.
type refreshBackend struct {
	t *testing.T

	mu             sync.Mutex
	validAccess    string
	protectedHits  int
	protectedAuths []string
	refreshHits    int32
	refreshBodies  []map[string]string
	refreshStatus  int               // 0 means succeed
	rotateTo       domain.AuthTokens // pair returned on successful refresh
}

func (b *refreshBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/checkin/recent", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.protectedHits++
		b.protectedAuths = append(b.protectedAuths, r.Header.Get("Authorization"))
		valid := "Bearer " + b.validAccess
		b.mu.Unlock()

		if r.Header.Get("Authorization") != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"checkIns":[],"total":0,"limit":10,"offset":0}`))
	})

	mux.HandleFunc("/auth/refreshToken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.refreshHits, 1)

		assert.Empty(b.t, r.Header.Get("Authorization"),
			"refresh call must never carry a bearer header")

		var body map[string]string
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		b.mu.Lock()
		b.refreshBodies = append(b.refreshBodies, body)
		status := b.refreshStatus
		rotated := b.rotateTo
		b.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid refresh token"}`))
			return
		}

		b.mu.Lock()
		b.validAccess = rotated.AccessToken
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(rotated)
	})

	mux.HandleFunc("/auth/getUser", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.User{ID: "u1", Email: "a@b.com", Name: "Ann"})
	})

	return mux
}

func TestProtectedCall_AttachesBearerFromSession(t *testing.T) {
	backend := &refreshBackend{t: t, validAccess: "A1"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, _, _ := newSignedInClient(t, srv.URL)

	_, err := client.RecentCheckIns(context.Background(), 10, 0)
	require.NoError(t, err)

	require.Len(t, backend.protectedAuths, 1)
	assert.Equal(t, "Bearer A1", backend.protectedAuths[0])
}

func TestRefreshAndReplay_RotatesPairAndReplaysOnce(t *testing.T) {
	backend := &refreshBackend{
		t:           t,
		validAccess: "A2", // A1 is already stale
		rotateTo:    domain.AuthTokens{AccessToken: "A2", RefreshToken: "R2"},
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, mgr, mem := newSignedInClient(t, srv.URL)

	ctx := context.Background()
	list, err := client.RecentCheckIns(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)

	// Refresh was called exactly once, with the stored refresh token.
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.refreshHits))
	require.Len(t, backend.refreshBodies, 1)
	assert.Equal(t, "R1", backend.refreshBodies[0]["token"])

	// Original attempt carried A1, the single replay carried A2.
	require.Len(t, backend.protectedAuths, 2)
	assert.Equal(t, "Bearer A1", backend.protectedAuths[0])
	assert.Equal(t, "Bearer A2", backend.protectedAuths[1])

	// Durable store and token cache agree on the new pair.
	v, err := mem.Get(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A2", v)
	v, err = mem.Get(ctx, store.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "R2", v)
	assert.Equal(t, "A2", mgr.AccessToken(ctx))
	assert.Equal(t, "R2", mgr.RefreshToken(ctx))

	// The opportunistic profile re-fetch landed.
	userJSON, err := mem.Get(ctx, store.KeyUser)
	require.NoError(t, err)
	assert.Contains(t, userJSON, `"name":"Ann"`)
}

func TestAlwaysRejectingBackend_AtMostOneRefreshAndOneReplay(t *testing.T) {
	backend := &refreshBackend{
		t:           t,
		validAccess: "nothing-matches", // every bearer is rejected
		rotateTo:    domain.AuthTokens{AccessToken: "A2", RefreshToken: "R2"},
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, _, _ := newSignedInClient(t, srv.URL)

	_, err := client.RecentCheckIns(context.Background(), 10, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	// No loop: one refresh, one replay, done.
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.refreshHits))
	assert.Equal(t, 2, backend.protectedHits)
}

func TestSkipAuth_NoBearerAndNoRefresh(t *testing.T) {
	var refreshHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/google", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad identity token"}`))
	})
	mux.HandleFunc("/auth/refreshToken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshHits, 1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, _, _ := newSignedInClient(t, srv.URL)

	_, err := client.LoginWithGoogle(context.Background(), "bogus")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	// A 401 on a skipAuth request never triggers the refresh protocol.
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshHits))
}

func TestMissingRefreshToken_ClearsEverythingAndKeepsOriginalError(t *testing.T) {
	backend := &refreshBackend{t: t, validAccess: "nothing-matches"}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	ctx := context.Background()

	// Access token only: no refresh token, no user.
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, store.KeyAccessToken, "A1"))
	mgr := session.NewManager(mem, testLogger())
	mgr.Load(ctx)
	client := New(fastConfig(srv.URL), mgr, testLogger())

	invalidated := mgr.Invalidated()

	_, err := client.RecentCheckIns(ctx, 10, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	// Refresh endpoint never reached; credentials fully cleared.
	assert.Equal(t, int32(0), atomic.LoadInt32(&backend.refreshHits))
	_, getErr := mem.Get(ctx, store.KeyAccessToken)
	assert.ErrorIs(t, getErr, store.ErrNotFound)
	assert.False(t, mgr.Current().SignedIn())

	select {
	case <-invalidated:
	default:
		t.Fatal("expected session-invalidated signal")
	}
}

func TestRefreshRejected_ClearsCredentialsAndSignals(t *testing.T) {
	backend := &refreshBackend{
		t:             t,
		validAccess:   "nothing-matches",
		refreshStatus: http.StatusBadRequest,
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	client, mgr, mem := newSignedInClient(t, srv.URL)
	invalidated := mgr.Invalidated()

	ctx := context.Background()
	_, err := client.RecentCheckIns(ctx, 10, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))

	// Store wiped, session null, subscriber signalled.
	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeyUser} {
		_, getErr := mem.Get(ctx, key)
		assert.ErrorIs(t, getErr, store.ErrNotFound, key)
	}
	assert.False(t, mgr.Current().SignedIn())

	select {
	case <-invalidated:
	default:
		t.Fatal("expected session-invalidated signal")
	}
}

func TestRefreshConnectivityFailure_KeepsCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/checkin/recent", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
	})
	mux.HandleFunc("/auth/refreshToken", func(w http.ResponseWriter, r *http.Request) {
		// Drop the connection without a response: connectivity-shaped failure.
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, mgr, mem := newSignedInClient(t, srv.URL)
	invalidated := mgr.Invalidated()

	ctx := context.Background()
	_, err := client.RecentCheckIns(ctx, 10, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err), "expected a connectivity-shaped error, got %v", err)

	// Credentials untouched: the user may regain connectivity and the
	// refresh token may still be valid.
	v, getErr := mem.Get(ctx, store.KeyAccessToken)
	require.NoError(t, getErr)
	assert.Equal(t, "A1", v)
	v, getErr = mem.Get(ctx, store.KeyRefreshToken)
	require.NoError(t, getErr)
	assert.Equal(t, "R1", v)
	assert.True(t, mgr.Current().SignedIn())

	select {
	case <-invalidated:
		t.Fatal("connectivity failure must not invalidate the session")
	default:
	}
}

func TestConcurrent401s_CoalesceIntoOneRefresh(t *testing.T) {
	const workers = 2

	var barrier sync.WaitGroup
	barrier.Add(workers)

	backend := &refreshBackend{
		t:           t,
		validAccess: "A2",
		rotateTo:    domain.AuthTokens{AccessToken: "A2", RefreshToken: "R2"},
	}
	mux := http.NewServeMux()
	mux.Handle("/", backend.handler())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/checkin/recent" && r.Header.Get("Authorization") == "Bearer A1" {
			// Hold both stale requests until each has arrived, so their
			// refresh attempts overlap deterministically.
			barrier.Done()
			barrier.Wait()
		}
		if r.URL.Path == "/auth/refreshToken" {
			time.Sleep(50 * time.Millisecond)
		}
		mux.ServeHTTP(w, r)
	}))
	defer srv.Close()

	client, _, _ := newSignedInClient(t, srv.URL)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.RecentCheckIns(context.Background(), 10, 0)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.refreshHits),
		"concurrent 401s must share one refresh call")
}

func TestNonAuthErrorsPassThrough(t *testing.T) {
	var refreshHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/message", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit exceeded","details":"retry in 60s"}`))
	})
	mux.HandleFunc("/auth/refreshToken", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshHits, 1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, mgr, _ := newSignedInClient(t, srv.URL)

	_, err := client.SendChatMessage(context.Background(), domain.ChatInput{Message: "hello"})
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, apperrors.StatusOf(err))

	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshHits))
	assert.True(t, mgr.Current().SignedIn())
}

func TestFailedProfileRefetch_DoesNotFailRefresh(t *testing.T) {
	backend := &refreshBackend{
		t:           t,
		validAccess: "A2",
		rotateTo:    domain.AuthTokens{AccessToken: "A2", RefreshToken: "R2"},
	}
	mux := http.NewServeMux()
	mux.Handle("/", backend.handler())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/getUser" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	defer srv.Close()

	client, _, mem := newSignedInClient(t, srv.URL)

	ctx := context.Background()
	_, err := client.RecentCheckIns(ctx, 10, 0)
	require.NoError(t, err)

	// Tokens rotated; the stale cached profile is still there.
	v, getErr := mem.Get(ctx, store.KeyAccessToken)
	require.NoError(t, getErr)
	assert.Equal(t, "A2", v)
	userJSON, getErr := mem.Get(ctx, store.KeyUser)
	require.NoError(t, getErr)
	assert.Contains(t, userJSON, `"id":"u1"`)
}
