package stubserver

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/BasilJohn/GraceGuide/internal/domain"
)

// state is the stub's in-memory world: accounts keyed by the identity token
// that signed them in, their check-ins, and their conversations. Everything
// is lost on restart, which is the point of a stub.
type state struct {
	mu sync.RWMutex

	// users by ID.
	users map[string]domain.User
	// userByIdentity maps a provider identity token to a user ID, so the
	// same token signs in to the same account.
	userByIdentity map[string]string
	// currentRefreshID holds the only refresh token ID accepted per user.
	// Refreshing rotates it; reusing a superseded token fails.
	currentRefreshID map[string]string

	checkIns      map[string][]domain.CheckIn     // by user ID, newest first
	conversations map[string][]*conversation      // by user ID, most recent first
}

type conversation struct {
	domain.Conversation
	messages []domain.ChatMessage
}

func newState() *state {
	return &state{
		users:            make(map[string]domain.User),
		userByIdentity:   make(map[string]string),
		currentRefreshID: make(map[string]string),
		checkIns:         make(map[string][]domain.CheckIn),
		conversations:    make(map[string][]*conversation),
	}
}

// signIn finds or creates the account for a provider identity token.
func (s *state) signIn(identityToken, email, name string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.userByIdentity[identityToken]; ok {
		return s.users[id]
	}

	user := domain.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
	}
	s.users[user.ID] = user
	s.userByIdentity[identityToken] = user.ID
	return user
}

func (s *state) user(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// setRefreshID records tokenID as the only valid refresh token for the user.
func (s *state) setRefreshID(userID, tokenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRefreshID[userID] = tokenID
}

// consumeRefreshID reports whether tokenID is the user's current refresh
// token and, if so, retires it. A superseded or already-used token fails.
func (s *state) consumeRefreshID(userID, tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentRefreshID[userID] != tokenID {
		return false
	}
	delete(s.currentRefreshID, userID)
	return true
}

// deleteUser removes the account and everything attached to it.
func (s *state) deleteUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	delete(s.currentRefreshID, userID)
	delete(s.checkIns, userID)
	delete(s.conversations, userID)
	for identity, id := range s.userByIdentity {
		if id == userID {
			delete(s.userByIdentity, identity)
		}
	}
}

func (s *state) addCheckIn(userID string, ci domain.CheckIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkIns[userID] = append([]domain.CheckIn{ci}, s.checkIns[userID]...)
}

func (s *state) recentCheckIns(userID string, limit, offset int) ([]domain.CheckIn, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.checkIns[userID]
	total := len(all)
	if offset >= total {
		return []domain.CheckIn{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]domain.CheckIn, end-offset)
	copy(page, all[offset:end])
	return page, total
}

// appendMessage adds a message to the conversation, creating it when
// conversationID is empty. It returns the conversation the message landed in.
func (s *state) appendMessage(userID, conversationID string, msg domain.ChatMessage) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conv *conversation
	if conversationID != "" {
		for _, c := range s.conversations[userID] {
			if c.ID == conversationID {
				conv = c
				break
			}
		}
	}
	if conv == nil {
		conv = &conversation{
			Conversation: domain.Conversation{
				ID:        uuid.NewString(),
				Title:     title(msg.Content),
				CreatedAt: msg.CreatedAt,
			},
		}
		s.conversations[userID] = append(s.conversations[userID], conv)
	}

	conv.messages = append(conv.messages, msg)
	conv.LastMessageAt = msg.CreatedAt
	return conv
}

func (s *state) listConversations(userID string, limit, offset int) ([]domain.Conversation, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.conversations[userID]
	summaries := make([]domain.Conversation, len(all))
	for i, c := range all {
		summaries[i] = c.Conversation
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})

	total := len(summaries)
	if offset >= total {
		return []domain.Conversation{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return summaries[offset:end], total
}

// conversationMessages returns up to limit messages of the conversation,
// oldest first, ending just before the message with ID before (or the newest
// message when before is empty). The second return is the ID to pass as
// before on the next page, empty when the start has been reached.
func (s *state) conversationMessages(userID, conversationID string, limit int, before string) ([]domain.ChatMessage, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conv *conversation
	for _, c := range s.conversations[userID] {
		if c.ID == conversationID {
			conv = c
			break
		}
	}
	if conv == nil {
		return nil, "", false
	}

	end := len(conv.messages)
	if before != "" {
		for i, m := range conv.messages {
			if m.ID == before {
				end = i
				break
			}
		}
	}

	start := end - limit
	if start < 0 {
		start = 0
	}
	page := make([]domain.ChatMessage, end-start)
	copy(page, conv.messages[start:end])

	next := ""
	if start > 0 {
		next = conv.messages[start].ID
	}
	return page, next, true
}

func title(content string) string {
	const max = 40
	if len(content) <= max {
		return content
	}
	return content[:max]
}
