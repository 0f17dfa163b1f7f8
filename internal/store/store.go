package store

import (
	"context"
	"errors"
)

// Keys owned by the session layer. The three credential keys are present
// together or absent together under normal operation; a transient window
// during sign-in or refresh is tolerated.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// App-level keys used by the front-end flows. They live in the same store
// but are not touched by the session core.
const (
	KeyOnboardingCompleted   = "onboardingCompleted"
	KeyCheckInEmotions       = "checkInEmotions"
	KeyCheckInTone           = "checkInTone"
	KeyPendingChatResponse   = "pendingChatResponse"
	KeyCurrentConversationID = "currentConversationId"
	KeyPreferredTone         = "preferredTone"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("key not found")

// CredentialStore is durable, process-independent key-value storage for
// string values (JSON-encoded where structured). Implementations must be
// safe for concurrent use.
type CredentialStore interface {
	// Get returns the value for key, or ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
