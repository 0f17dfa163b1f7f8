package stubserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/pkg/httputil"
	"github.com/BasilJohn/GraceGuide/pkg/middleware"
	"github.com/BasilJohn/GraceGuide/pkg/pagination"
)

// ChatMessageRequest is the JSON request body for sending a chat message.
type ChatMessageRequest struct {
	Message        string `json:"message" validate:"required,min=1,max=4000"`
	ConversationID string `json:"conversationId,omitempty"`
	IncludeContext bool   `json:"includeContext"`
}

// handleChatMessage handles POST /api/chat/message. The stub echoes a canned
// reply instead of calling a language model.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	now := time.Now().UTC()

	conv := s.state.appendMessage(userID, req.ConversationID, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   req.Message,
		CreatedAt: now,
	})

	reply := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   cannedReply(req.Message, req.IncludeContext),
		CreatedAt: now.Add(time.Millisecond),
	}
	s.state.appendMessage(userID, conv.ID, reply)

	httputil.WriteJSON(w, http.StatusOK, domain.ChatReply{
		ConversationID: conv.ID,
		Message:        reply,
	})
}

// handleListConversations handles GET /api/chat/conversations.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r, 20, 100)

	page, total := s.state.listConversations(middleware.UserIDFromContext(r.Context()), p.Limit, p.Offset)
	httputil.WriteJSON(w, http.StatusOK, domain.ConversationList{
		Conversations: page,
		Total:         total,
		Limit:         p.Limit,
		Offset:        p.Offset,
	})
}

// handleConversationMessages handles GET /api/chat/conversations/{conversationID}/messages.
func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	limit := pagination.FromRequest(r, 50, 200).Limit
	before := r.URL.Query().Get("before")

	messages, next, ok := s.state.conversationMessages(
		middleware.UserIDFromContext(r.Context()), conversationID, limit, before)
	if !ok {
		httputil.WriteError(w, r, http.StatusNotFound, "conversation not found", s.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, domain.ConversationHistory{
		ConversationID: conversationID,
		Messages:       messages,
		Before:         next,
	})
}

func cannedReply(message string, includeContext bool) string {
	if includeContext {
		return fmt.Sprintf("Thinking of your recent check-ins: %q is worth sitting with. Psalm 46:10 may help.", message)
	}
	return fmt.Sprintf("You said %q. Consider what scripture speaks to this.", message)
}
