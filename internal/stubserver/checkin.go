package stubserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/pkg/httputil"
	"github.com/BasilJohn/GraceGuide/pkg/middleware"
	"github.com/BasilJohn/GraceGuide/pkg/pagination"
)

// CheckInRequest is the JSON request body for submitting a check-in.
type CheckInRequest struct {
	Emotions  []string `json:"emotions" validate:"required,min=1,max=5,dive,min=2,max=32"`
	Tone      string   `json:"tone" validate:"required,oneof=gentle encouraging direct"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// handleSubmitCheckIn handles POST /api/checkin.
func (s *Server) handleSubmitCheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	createdAt := time.Now().UTC()
	if req.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			httputil.WriteError(w, r, http.StatusBadRequest, "timestamp must be RFC 3339", s.logger)
			return
		}
		createdAt = ts.UTC()
	}

	emotions := make([]domain.Emotion, len(req.Emotions))
	for i, e := range req.Emotions {
		emotions[i] = domain.Emotion(e)
	}

	ci := domain.CheckIn{
		ID:        uuid.NewString(),
		Emotions:  emotions,
		Tone:      domain.Tone(req.Tone),
		Guidance:  canned(domain.Tone(req.Tone), emotions),
		Scripture: "Philippians 4:6-7",
		CreatedAt: createdAt,
	}
	s.state.addCheckIn(middleware.UserIDFromContext(r.Context()), ci)

	httputil.WriteJSON(w, http.StatusCreated, ci)
}

// handleRecentCheckIns handles GET /api/checkin/recent.
func (s *Server) handleRecentCheckIns(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r, 10, 100)

	page, total := s.state.recentCheckIns(middleware.UserIDFromContext(r.Context()), p.Limit, p.Offset)
	httputil.WriteJSON(w, http.StatusOK, domain.CheckInList{
		CheckIns: page,
		Total:    total,
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
}

// canned produces deterministic guidance text so tests can assert on it.
func canned(tone domain.Tone, emotions []domain.Emotion) string {
	first := "what you carry"
	if len(emotions) > 0 {
		first = string(emotions[0])
	}
	switch tone {
	case domain.ToneDirect:
		return fmt.Sprintf("Name %s honestly and bring it to prayer today.", first)
	case domain.ToneEncouraging:
		return fmt.Sprintf("Feeling %s is not the end of the story. Keep going.", first)
	default:
		return fmt.Sprintf("It is all right to feel %s. You are not alone in it.", first)
	}
}
