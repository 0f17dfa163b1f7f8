package domain

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatInput is the payload for sending a chat message. ConversationID is
// empty for the first message of a new conversation; IncludeContext asks the
// backend to ground the reply in recent check-ins.
type ChatInput struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	IncludeContext bool   `json:"includeContext"`
}

// ChatMessage is a single message within a conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatReply is the backend's response to a sent message.
type ChatReply struct {
	ConversationID string      `json:"conversationId"`
	Message        ChatMessage `json:"message"`
}

// Conversation is a chat thread summary.
type Conversation struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ConversationList is a page of conversations.
type ConversationList struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
}

// ConversationHistory is a page of messages within one conversation, newest
// last. Before carries the pagination cursor echoed by the backend.
type ConversationHistory struct {
	ConversationID string        `json:"conversationId"`
	Messages       []ChatMessage `json:"messages"`
	Before         string        `json:"before,omitempty"`
}
