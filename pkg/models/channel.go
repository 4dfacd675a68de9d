package models

import "time"

// Platform identifies an external publishing platform.
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
	PlatformYouTube  Platform = "youtube"
)

// Channel is a workspace's connection to one platform.
// At most one active channel may exist per (workspace, platform, account).
type Channel struct {
	ID              string     `json:"id"`
	WorkspaceID     string     `json:"workspace_id"`
	Platform        Platform   `json:"platform"`
	Tier            string     `json:"tier,omitempty"`
	DisplayName     string     `json:"display_name"`
	AccountID       string     `json:"account_id"`
	Active          bool       `json:"active"`
	ConnectedAt     time.Time  `json:"connected_at"`
	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	TokenExpiresAt  *time.Time `json:"token_expires_at,omitempty"`
}

// TokenHealth classifies the remaining validity window of a stored credential.
type TokenHealth string

const (
	TokenHealthUnknown      TokenHealth = "unknown"
	TokenHealthExpired      TokenHealth = "expired"
	TokenHealthExpiringSoon TokenHealth = "expiring_soon"
	TokenHealthHealthy      TokenHealth = "healthy"
)

// ExpiryHorizon is the window within which a token counts as expiring soon.
const ExpiryHorizon = 7 * 24 * time.Hour

// ClassifyTokenHealth derives token health from an expiry timestamp and the
// current time. A nil expiry is unknown, not healthy: platforms that never
// report expiry cannot be assumed fresh.
func ClassifyTokenHealth(expiresAt *time.Time, now time.Time) TokenHealth {
	if expiresAt == nil {
		return TokenHealthUnknown
	}
	if !expiresAt.After(now) {
		return TokenHealthExpired
	}
	if expiresAt.Sub(now) <= ExpiryHorizon {
		return TokenHealthExpiringSoon
	}
	return TokenHealthHealthy
}

// TokenHealth returns the derived health of the channel's stored token.
func (c *Channel) TokenHealth(now time.Time) TokenHealth {
	return ClassifyTokenHealth(c.TokenExpiresAt, now)
}
