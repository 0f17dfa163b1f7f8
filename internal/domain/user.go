package domain

import "time"

// User is the backend user profile. The session layer treats it as opaque
// beyond storing and restoring it as JSON; field names follow the backend's
// camelCase wire format.
type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name,omitempty"`
	AvatarURL          string     `json:"avatarUrl,omitempty"`
	IsPremium          bool       `json:"isPremium,omitempty"`
	PremiumExpiresAt   *time.Time `json:"premiumExpiresAt,omitempty"`
	SubscriptionTier   string     `json:"subscriptionTier,omitempty"`
	SubscriptionStatus string     `json:"subscriptionStatus,omitempty"`
	RevenueCatUserID   string     `json:"revenueCatUserId,omitempty"`
}

// Subscription tiers and statuses the backend reports.
const (
	TierFree    = "free"
	TierPremium = "premium"

	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// AuthTokens is the access/refresh token pair minted by the backend.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the authoritative in-memory session exposed to the front-end.
// Loading is true from construction until the credential store has been read
// once; after that the session is either a populated triple or fully null.
type Session struct {
	User    *User
	Tokens  *AuthTokens
	Loading bool
}

// SignedIn reports whether the session holds a complete user+token triple.
func (s Session) SignedIn() bool {
	return s.User != nil && s.Tokens != nil
}

// AuthResponse is the payload returned by the login endpoints:
// a token pair plus the authenticated user. Apple sign-in may omit the
// refresh token.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         User   `json:"user"`
}

// Tokens returns the token pair carried by the auth response.
func (r AuthResponse) Tokens() AuthTokens {
	return AuthTokens{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}
