// Package stubserver implements a local stand-in for the GraceGuide backend.
// It speaks the same wire contract as production, including refresh token
// rotation, so the client's session layer can be exercised end to end
// without network access.
package stubserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BasilJohn/GraceGuide/internal/config"
	"github.com/BasilJohn/GraceGuide/pkg/health"
	"github.com/BasilJohn/GraceGuide/pkg/middleware"
)

// Server holds the stub backend's state and token machinery.
type Server struct {
	state  *state
	jwt    *JWTManager
	logger *slog.Logger
}

// New creates a stub server.
func New(jwtManager *JWTManager, logger *slog.Logger) *Server {
	return &Server{
		state:  newState(),
		jwt:    jwtManager,
		logger: logger,
	}
}

// Router builds the chi router with the full wire contract registered.
func (s *Server) Router(cfg *config.StubConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(middleware.CORSConfig{Environment: cfg.Environment}))
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestLogging(s.logger))
	r.Use(middleware.PrometheusMetrics("stub"))

	healthHandler := health.NewHandler()
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Public auth endpoints. The refresh endpoint is public on purpose: it
	// is called exactly when the access token no longer works.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/google", s.handleGoogleLogin)
		r.Post("/apple", s.handleAppleLogin)
		r.Post("/refreshToken", s.handleRefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(s.validateToken))
			r.Use(middleware.RequestLogger(s.logger))
			r.Get("/getUser", s.handleGetUser)
			r.Delete("/me", s.handleDeleteAccount)
		})
	})

	// Daily content is public: the home screen shows it before sign-in.
	r.Route("/api/daily", func(r chi.Router) {
		r.Get("/scripture", s.handleDailyScripture)
		r.Get("/verse", s.handleDailyVerse)
		r.Get("/devotional", s.handleDailyDevotional)
	})

	// Everything else requires a valid access token.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(s.validateToken))
		r.Use(middleware.RequestLogger(s.logger))

		r.Post("/checkin", s.handleSubmitCheckIn)
		r.Get("/checkin/recent", s.handleRecentCheckIns)

		r.Post("/chat/message", s.handleChatMessage)
		r.Get("/chat/conversations", s.handleListConversations)
		r.Get("/chat/conversations/{conversationID}/messages", s.handleConversationMessages)
	})

	return r
}

func (s *Server) validateToken(token string) (*middleware.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if _, ok := s.state.user(claims.UserID); !ok {
		return nil, errUnknownUser
	}
	return &middleware.Claims{UserID: claims.UserID, Email: claims.Email}, nil
}
