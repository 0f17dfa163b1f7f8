package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	apperrors "github.com/BasilJohn/GraceGuide/pkg/errors"
	"github.com/BasilJohn/GraceGuide/pkg/logger"
)

// refreshAccessToken runs the refresh protocol and returns the new access
// token. Concurrent callers that each hit a 401 are coalesced into a single
// in-flight refresh that all of them await, so a burst of expired requests
// consumes one refresh token instead of racing the backend's rotation.
//
// Outcomes:
//   - success: new pair persisted to store and cache together, profile
//     re-fetched opportunistically, new access token returned.
//   - no refresh token: all credentials cleared, session invalidated,
//     apperrors.ErrNoRefreshToken returned.
//   - refresh rejected (400/401/403): all credentials cleared, session
//     invalidated, error wrapping apperrors.ErrSessionExpired returned.
//   - anything else (transport failure, timeout, 5xx): credentials left
//     untouched, since the user may regain connectivity and the refresh
//     token may still be valid.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	log := logger.WithContext(ctx, c.logger)

	refreshToken := c.creds.RefreshToken(ctx)
	if refreshToken == "" {
		refreshTotal.WithLabelValues(refreshOutcomeNoToken).Inc()
		log.InfoContext(ctx, "authorization failed with no refresh token, clearing session")
		if err := c.creds.Invalidate(ctx); err != nil {
			log.WarnContext(ctx, "credential clear failed", slog.String("error", err.Error()))
		}
		return "", apperrors.ErrNoRefreshToken
	}

	rctx := ctx
	if c.refreshTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()
	}

	// The refresh call itself must never carry the now-invalid access token.
	resp, err := c.sendRefresh(rctx, refreshToken)
	if err != nil {
		refreshTotal.WithLabelValues(refreshOutcomeUnreachable).Inc()
		log.WarnContext(ctx, "token refresh unreachable, keeping credentials",
			slog.String("error", err.Error()))
		return "", fmt.Errorf("refresh token: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := apperrors.FromResponse(resp)

		if apperrors.IsAuthRejection(apiErr.Status) {
			refreshTotal.WithLabelValues(refreshOutcomeRejected).Inc()
			log.InfoContext(ctx, "refresh token rejected, clearing session",
				slog.Int("status", apiErr.Status))
			if err := c.creds.Invalidate(ctx); err != nil {
				log.WarnContext(ctx, "credential clear failed", slog.String("error", err.Error()))
			}
			return "", fmt.Errorf("refresh token: %w", errors.Join(apperrors.ErrSessionExpired, apiErr))
		}

		// The backend answered but not about our credentials; treat like
		// connectivity trouble and leave state alone.
		refreshTotal.WithLabelValues(refreshOutcomeFailed).Inc()
		log.WarnContext(ctx, "token refresh failed, keeping credentials",
			slog.Int("status", apiErr.Status))
		return "", fmt.Errorf("refresh token: %w", apiErr)
	}

	var pair domain.AuthTokens
	if err := decode(resp, &pair); err != nil {
		refreshTotal.WithLabelValues(refreshOutcomeFailed).Inc()
		return "", fmt.Errorf("refresh token: %w", err)
	}

	// Persistence must complete before the replay reads the token.
	if err := c.creds.StoreTokens(ctx, pair); err != nil {
		refreshTotal.WithLabelValues(refreshOutcomeFailed).Inc()
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	refreshTotal.WithLabelValues(refreshOutcomeSuccess).Inc()
	log.InfoContext(ctx, "token pair refreshed")

	c.refetchProfile(ctx, pair.AccessToken)

	return pair.AccessToken, nil
}

// sendRefresh posts the refresh token through the breaker-guarded transport,
// with skipAuth semantics: no bearer header ever.
func (c *Client) sendRefresh(ctx context.Context, refreshToken string) (*http.Response, error) {
	body, err := json.Marshal(map[string]string{"token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encode refresh request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/refreshToken", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	return c.refreshHTTP.Do(ctx, httpReq)
}

// refetchProfile opportunistically refreshes the cached user profile with
// the new access token. A stale cached profile is acceptable; refresh
// success is not contingent on this call.
func (c *Client) refetchProfile(ctx context.Context, accessToken string) {
	log := logger.WithContext(ctx, c.logger)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/auth/getUser", http.NoBody)
	if err != nil {
		log.WarnContext(ctx, "profile re-fetch skipped", slog.String("error", err.Error()))
		return
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		log.WarnContext(ctx, "profile re-fetch failed", slog.String("error", err.Error()))
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := apperrors.FromResponse(resp)
		log.WarnContext(ctx, "profile re-fetch failed", slog.Int("status", apiErr.Status))
		return
	}

	var user domain.User
	if err := decode(resp, &user); err != nil {
		log.WarnContext(ctx, "profile re-fetch undecodable", slog.String("error", err.Error()))
		return
	}
	if err := c.creds.StoreUser(ctx, user); err != nil {
		log.WarnContext(ctx, "profile cache update failed", slog.String("error", err.Error()))
	}
}

// Refresh outcome labels for the auth_token_refresh_total metric.
const (
	refreshOutcomeSuccess     = "success"
	refreshOutcomeRejected    = "rejected"
	refreshOutcomeNoToken     = "no_refresh_token"
	refreshOutcomeUnreachable = "unreachable"
	refreshOutcomeFailed      = "failed"
)
