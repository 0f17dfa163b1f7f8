package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/pkg/httputil"
	"github.com/BasilJohn/GraceGuide/pkg/middleware"
	"github.com/BasilJohn/GraceGuide/pkg/validator"
)

var errUnknownUser = errors.New("unknown user")

// --- Request DTOs ---

// GoogleLoginRequest is the JSON request body for Google sign-in.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// AppleLoginRequest is the JSON request body for Apple sign-in.
type AppleLoginRequest struct {
	IdentityToken string `json:"identityToken" validate:"required"`
}

// RefreshTokenRequest is the JSON request body for token refresh.
type RefreshTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Handlers ---

// handleGoogleLogin handles POST /auth/google. Any non-empty identity token
// is accepted; production verifies it with the provider.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.completeLogin(w, r, req.IDToken, "google")
}

// handleAppleLogin handles POST /auth/apple.
func (s *Server) handleAppleLogin(w http.ResponseWriter, r *http.Request) {
	var req AppleLoginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.completeLogin(w, r, req.IdentityToken, "apple")
}

func (s *Server) completeLogin(w http.ResponseWriter, r *http.Request, identityToken, provider string) {
	email := stubEmail(identityToken, provider)
	user := s.state.signIn(identityToken, email, "Grace Seeker")

	tokens, err := s.issueTokens(user)
	if err != nil {
		httputil.WriteError(w, r, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, domain.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         user,
	})
}

// handleRefreshToken handles POST /auth/refreshToken. Each refresh token is
// single-use: a successful refresh rotates the pair and retires the token
// that was presented, and a superseded token is rejected outright.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	claims, err := s.jwt.ValidateRefreshToken(req.Token)
	if err != nil {
		httputil.WriteError(w, r, http.StatusUnauthorized, "invalid refresh token", s.logger)
		return
	}

	user, ok := s.state.user(claims.UserID)
	if !ok {
		httputil.WriteError(w, r, http.StatusUnauthorized, "invalid refresh token", s.logger)
		return
	}

	if !s.state.consumeRefreshID(claims.UserID, claims.ID) {
		httputil.WriteError(w, r, http.StatusForbidden, "refresh token superseded", s.logger)
		return
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		httputil.WriteError(w, r, http.StatusInternalServerError, err.Error(), s.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokens)
}

// handleGetUser handles GET /auth/getUser.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	user, ok := s.state.user(userID)
	if !ok {
		httputil.WriteError(w, r, http.StatusNotFound, "user not found", s.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// handleDeleteAccount handles DELETE /auth/me.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	s.state.deleteUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (s *Server) issueTokens(user domain.User) (domain.AuthTokens, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return domain.AuthTokens{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, tokenID, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return domain.AuthTokens{}, fmt.Errorf("issue refresh token: %w", err)
	}
	s.state.setRefreshID(user.ID, tokenID)
	return domain.AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// decodeBody decodes and validates a JSON request body, answering 400 on
// failure. It reports whether the handler should continue.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error(), s.logger)
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// stubEmail derives a stable fake address from the identity token so the
// same token always lands on the same account.
func stubEmail(identityToken, provider string) string {
	tail := identityToken
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	tail = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return 'x'
	}, tail)
	return fmt.Sprintf("%s-%s@stub.graceguide.app", provider, tail)
}
