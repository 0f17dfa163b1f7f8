package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/BasilJohn/GraceGuide/internal/domain"
)

// SendChatMessage sends a message, starting a new conversation when the
// input carries no conversation ID.
func (c *Client) SendChatMessage(ctx context.Context, input domain.ChatInput) (*domain.ChatReply, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode chat message: %w", err)
	}

	var out domain.ChatReply
	if err := c.do(ctx, &request{
		method: "POST",
		path:   "api/chat/message",
		body:   body,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations returns a page of the user's conversations, most
// recently active first.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*domain.ConversationList, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var out domain.ConversationList
	if err := c.do(ctx, &request{
		method: "GET",
		path:   "api/chat/conversations",
		query:  query,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConversationHistory returns messages from one conversation. A non-empty
// before cursor pages backwards from that message.
func (c *Client) ConversationHistory(ctx context.Context, conversationID string, limit int, before string) (*domain.ConversationHistory, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if before != "" {
		query.Set("before", before)
	}

	var out domain.ConversationHistory
	if err := c.do(ctx, &request{
		method: "GET",
		path:   "api/chat/conversations/" + url.PathEscape(conversationID) + "/messages",
		query:  query,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
