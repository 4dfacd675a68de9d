package models

import "time"

// Content is the normalized publishable payload handed to connectors.
// Social platforms use Text; video hosts use Title/Description/Tags/MediaURL.
type Content struct {
	Text        string   `json:"text,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	MediaURL    string   `json:"media_url,omitempty"`
	LinkURL     string   `json:"link_url,omitempty"`
}

// DryRunChecks itemizes the offline validation outcomes for a prospective
// publish.
type DryRunChecks struct {
	CharacterLimitOk bool `json:"characterLimitOk"`
	FormatOk         bool `json:"formatOk"`
	CredentialOk     bool `json:"credentialOk"`
}

// Ok reports whether every check passed.
func (c DryRunChecks) Ok() bool {
	return c.CharacterLimitOk && c.FormatOk && c.CredentialOk
}

// DryRunResult is the ephemeral validation outcome for a prospective publish.
// It is never persisted.
type DryRunResult struct {
	Success        bool         `json:"success"`
	Platform       Platform     `json:"platform"`
	Checks         DryRunChecks `json:"validation"`
	EstimatedReach int          `json:"estimated_reach"`
	Message        string       `json:"message"`
}

// PublishResult is the normalized outcome of a real publish attempt.
// Retryable marks timeout/connection failures the caller may safely retry;
// it is orthogonal to ErrorCode so transport flakiness never masks which
// operation (or upload phase) failed.
type PublishResult struct {
	Success     bool      `json:"success"`
	Platform    Platform  `json:"platform"`
	PostID      string    `json:"post_id,omitempty"`
	Permalink   string    `json:"permalink,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorCode   string    `json:"error_code,omitempty"`
	Retryable   bool      `json:"retryable,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
}
