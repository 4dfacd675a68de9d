// Package twitter implements the publishing connector for X/Twitter.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/haasonsaas/syndicate/internal/connectors"
	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/pkg/models"
)

const (
	// APIBase is the Twitter v2 API endpoint.
	APIBase = "https://api.twitter.com/2"

	// CharacterLimit is the maximum post length.
	CharacterLimit = 280

	// baseReach is the reach heuristic baseline for a median account.
	baseReach = 150
)

// Adapter implements connectors.Connector for Twitter.
type Adapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds configuration for the Twitter adapter.
type Config struct {
	// BaseURL overrides the API endpoint (used in tests).
	BaseURL string

	// Timeout is the HTTP client timeout (default: 15s).
	Timeout time.Duration

	// Logger is an optional logger for adapter diagnostics.
	Logger *slog.Logger
}

// New creates a Twitter connector.
func New(cfg Config) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = APIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With("connector", "twitter"),
	}
}

// Platform returns the platform identifier.
func (a *Adapter) Platform() models.Platform {
	return models.PlatformTwitter
}

// ValidateContent is the pure offline validation for Twitter content.
func ValidateContent(content *models.Content) models.DryRunChecks {
	checks := models.DryRunChecks{
		CharacterLimitOk: utf8.RuneCountInString(content.Text) <= CharacterLimit,
		FormatOk:         strings.TrimSpace(content.Text) != "",
	}
	return checks
}

// ValidateToken performs a cheap liveness check against /users/me.
func (a *Adapter) ValidateToken(ctx context.Context, cred *credentials.Credential) bool {
	if cred == nil || cred.Value == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/users/me", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+cred.Value)

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// DryRun validates content offline and, only when the offline checks pass,
// folds in token validity. Over-limit content never touches the network.
func (a *Adapter) DryRun(ctx context.Context, content *models.Content, cred *credentials.Credential) *models.DryRunResult {
	checks := ValidateContent(content)
	if checks.CharacterLimitOk && checks.FormatOk {
		checks.CredentialOk = a.ValidateToken(ctx, cred)
	}

	result := &models.DryRunResult{
		Platform:       models.PlatformTwitter,
		Checks:         checks,
		Success:        checks.Ok(),
		EstimatedReach: estimateReach(content),
	}
	switch {
	case !checks.CharacterLimitOk:
		result.Message = fmt.Sprintf("post exceeds the %d character limit", CharacterLimit)
	case !checks.FormatOk:
		result.Message = "post text is empty"
	case !checks.CredentialOk:
		result.Message = "connected account token is not valid"
	default:
		result.Message = "ready to publish"
	}
	return result
}

// Publish posts the content as a tweet. No internal retries: a duplicate
// tweet is worse than a surfaced failure.
func (a *Adapter) Publish(ctx context.Context, content *models.Content, cred *credentials.Credential) (*models.PublishResult, error) {
	if checks := ValidateContent(content); !checks.CharacterLimitOk || !checks.FormatOk {
		return nil, &connectors.ValidationError{
			Platform: models.PlatformTwitter,
			Checks:   checks,
			Message:  fmt.Sprintf("post must be non-empty and at most %d characters", CharacterLimit),
		}
	}
	if cred == nil || cred.Value == "" {
		return nil, credentials.ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"text": content.Text})
	if err != nil {
		return nil, fmt.Errorf("twitter: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/tweets", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("twitter: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Value)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter: publish request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("twitter: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, platformError(resp.StatusCode, data)
	}

	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("twitter: decode response: %w", err)
	}
	if payload.Data.ID == "" {
		return nil, &connectors.PlatformError{
			Platform: models.PlatformTwitter,
			Status:   resp.StatusCode,
			Message:  "publish succeeded but no tweet id was returned",
		}
	}

	return &models.PublishResult{
		Success:     true,
		Platform:    models.PlatformTwitter,
		PostID:      payload.Data.ID,
		Permalink:   "https://twitter.com/i/web/status/" + payload.Data.ID,
		PublishedAt: time.Now().UTC(),
	}, nil
}

func platformError(status int, body []byte) *connectors.PlatformError {
	perr := &connectors.PlatformError{
		Platform: models.PlatformTwitter,
		Status:   status,
		Message:  strings.TrimSpace(string(body)),
	}
	var payload struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Title != "" {
			perr.Code = payload.Title
		}
		if payload.Detail != "" {
			perr.Message = payload.Detail
		}
	}
	return perr
}

func estimateReach(content *models.Content) int {
	reach := baseReach
	if content.LinkURL != "" {
		reach += 30
	}
	if content.MediaURL != "" {
		reach += 80
	}
	reach += 10 * len(content.Tags)
	return reach
}
