package models

import "time"

// CredentialKind distinguishes workspace-supplied keys from platform-managed
// OAuth tokens.
type CredentialKind string

const (
	CredentialBYOK  CredentialKind = "byok"
	CredentialOAuth CredentialKind = "oauth"
)

// CredentialRecord is the stored shape of a workspace credential. Exactly one
// of Key (byok) or AccessToken (oauth) is populated depending on Kind.
// Plaintext secrets never leave the credential layer; callers receive a
// resolved opaque value instead.
type CredentialRecord struct {
	Kind         CredentialKind `json:"kind"`
	Key          string         `json:"key,omitempty"`
	AccessToken  string         `json:"access_token,omitempty"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
}

// Health returns the derived four-state health of the record. BYOK keys carry
// no expiry and therefore report unknown.
func (r *CredentialRecord) Health(now time.Time) TokenHealth {
	return ClassifyTokenHealth(r.ExpiresAt, now)
}

// Expired reports whether an OAuth access token's expiry has passed. Records
// without an expiry are never considered expired.
func (r *CredentialRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}
