package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	apperrors "github.com/BasilJohn/GraceGuide/pkg/errors"
	"github.com/BasilJohn/GraceGuide/pkg/httpclient"
	"github.com/BasilJohn/GraceGuide/pkg/logger"
)

// Credentials is the session-state surface the client depends on: token
// reads on the request path, token/profile writes on the refresh path, and
// terminal invalidation. *session.Manager implements it; tests substitute
// fakes.
type Credentials interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	StoreTokens(ctx context.Context, tokens domain.AuthTokens) error
	StoreUser(ctx context.Context, user domain.User) error
	Invalidate(ctx context.Context) error
}

// doer abstracts the transport so the refresh path can run through a
// circuit breaker while ordinary traffic does not.
type doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds API client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:4001".
	BaseURL string

	// HTTP configures the underlying transport.
	HTTP httpclient.Config

	// RefreshTimeout bounds the refresh call specifically, since it gates
	// all subsequent traffic for the request chain that triggered it.
	RefreshTimeout time.Duration
}

// DefaultConfig returns client defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		HTTP:           httpclient.DefaultConfig(),
		RefreshTimeout: 15 * time.Second,
	}
}

// Client is the single choke point for every outbound call to the backend.
// It attaches bearer credentials at request time and transparently recovers
// from authorization failures at response time: on the first 401/403 of a
// request it refreshes the token pair exactly once, replays the original
// request exactly once, and returns the replay's outcome as final.
type Client struct {
	baseURL     string
	http        doer
	refreshHTTP doer
	creds       Credentials
	logger      *slog.Logger

	refreshGroup   singleflight.Group
	refreshTimeout time.Duration
}

// New creates an API client. The refresh endpoint runs behind its own
// circuit breaker: when the backend's auth service is melting down there is
// no point hammering it from every 401'd request.
func New(cfg Config, creds Credentials, log *slog.Logger) *Client {
	base := httpclient.New(cfg.HTTP)
	breaker := httpclient.NewCircuitBreakerClient(
		base,
		httpclient.DefaultCircuitBreakerConfig("token-refresh"),
		log,
	)

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           base,
		refreshHTTP:    breaker,
		creds:          creds,
		logger:         log,
		refreshTimeout: cfg.RefreshTimeout,
	}
}

// request is the descriptor that travels through the interception pipeline.
// The one-shot retried flag guarantees the refresh-and-replay cycle executes
// at most once per original request.
type request struct {
	method   string
	path     string
	query    url.Values
	body     []byte
	skipAuth bool
	retried  bool
}

// do executes the request through the full interception pipeline and decodes
// a 2xx JSON response into out (out may be nil to discard the body).
func (c *Client) do(ctx context.Context, req *request, out any) error {
	if logger.CorrelationIDFromContext(ctx) == "" {
		ctx = logger.WithCorrelationID(ctx, uuid.NewString())
	}

	resp, err := c.send(ctx, req, "")
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decode(resp, out)
	}

	apiErr := apperrors.FromResponse(resp)

	// Pass-through: non-auth failures, opted-out requests, and requests
	// that already consumed their one refresh attempt.
	if !apperrors.IsUnauthorized(apiErr.Status) || req.skipAuth || req.retried {
		return fmt.Errorf("%s %s: %w", req.method, req.path, apiErr)
	}

	req.retried = true

	newAccess, refreshErr := c.refreshAccessToken(ctx)
	if refreshErr != nil {
		if errors.Is(refreshErr, apperrors.ErrNoRefreshToken) {
			// Nothing to recover with: the original rejection stands.
			return fmt.Errorf("%s %s: %w", req.method, req.path, apiErr)
		}
		return fmt.Errorf("%s %s: %w", req.method, req.path, refreshErr)
	}

	// Replay exactly once with the fresh bearer; its outcome is final.
	resp, err = c.send(ctx, req, newAccess)
	if err != nil {
		return fmt.Errorf("%s %s (replay): %w", req.method, req.path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decode(resp, out)
	}
	return fmt.Errorf("%s %s (replay): %w", req.method, req.path, apperrors.FromResponse(resp))
}

// send builds and executes one HTTP attempt. tokenOverride, when non-empty,
// replaces whatever the credential cache holds. The replay passes the fresh
// token explicitly so it cannot race a concurrent cache mutation back to the
// stale token.
func (c *Client) send(ctx context.Context, req *request, tokenOverride string) (*http.Response, error) {
	u := c.baseURL + "/" + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		httpReq.Header.Set("X-Correlation-ID", cid)
	}

	if !req.skipAuth {
		token := tokenOverride
		if token == "" {
			// Absence is not an error here: the request proceeds
			// unauthenticated and the backend rejects it if auth was
			// required.
			token = c.creds.AccessToken(ctx)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return c.http.Do(ctx, httpReq)
}

// decode reads a JSON body into out, consuming and closing the response.
func decode(resp *http.Response, out any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
