// Package linkedin implements the publishing connector for LinkedIn.
package linkedin

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
	// APIBase is the LinkedIn REST API endpoint.
	APIBase = "https://api.linkedin.com"

	// CharacterLimit is the maximum post commentary length.
	CharacterLimit = 3000

	// baseReach is the reach heuristic baseline for a median account.
	baseReach = 400
)

// Adapter implements connectors.Connector for LinkedIn.
type Adapter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds configuration for the LinkedIn adapter.
type Config struct {
	// BaseURL overrides the API endpoint (used in tests).
	BaseURL string

	// Timeout is the HTTP client timeout (default: 15s).
	Timeout time.Duration

	// Logger is an optional logger for adapter diagnostics.
	Logger *slog.Logger
}

// New creates a LinkedIn connector.
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
		logger:  logger.With("connector", "linkedin"),
	}
}

// Platform returns the platform identifier.
func (a *Adapter) Platform() models.Platform {
	return models.PlatformLinkedIn
}

// ValidateContent is the pure offline validation for LinkedIn content.
func ValidateContent(content *models.Content) models.DryRunChecks {
	return models.DryRunChecks{
		CharacterLimitOk: utf8.RuneCountInString(content.Text) <= CharacterLimit,
		FormatOk:         strings.TrimSpace(content.Text) != "",
	}
}

// ValidateToken checks token liveness via the OpenID userinfo endpoint.
func (a *Adapter) ValidateToken(ctx context.Context, cred *credentials.Credential) bool {
	if cred == nil || cred.Value == "" {
		return false
	}
	_, err := a.userinfo(ctx, cred.Value)
	return err == nil
}

// DryRun validates content offline first. Content that fails offline checks
// never touches the network.
func (a *Adapter) DryRun(ctx context.Context, content *models.Content, cred *credentials.Credential) *models.DryRunResult {
	checks := ValidateContent(content)
	if checks.CharacterLimitOk && checks.FormatOk {
		checks.CredentialOk = a.ValidateToken(ctx, cred)
	}

	result := &models.DryRunResult{
		Platform:       models.PlatformLinkedIn,
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

// Publish creates a UGC post for the authenticated member. The member URN is
// resolved from the userinfo endpoint on every publish so a stale account id
// can never attribute a post to the wrong member.
func (a *Adapter) Publish(ctx context.Context, content *models.Content, cred *credentials.Credential) (*models.PublishResult, error) {
	if checks := ValidateContent(content); !checks.CharacterLimitOk || !checks.FormatOk {
		return nil, &connectors.ValidationError{
			Platform: models.PlatformLinkedIn,
			Checks:   checks,
			Message:  fmt.Sprintf("post must be non-empty and at most %d characters", CharacterLimit),
		}
	}
	if cred == nil || cred.Value == "" {
		return nil, credentials.ErrNotConfigured
	}

	memberID, err := a.userinfo(ctx, cred.Value)
	if err != nil {
		return nil, err
	}

	post := ugcPost{
		Author:         "urn:li:person:" + memberID,
		LifecycleState: "PUBLISHED",
	}
	post.SpecificContent.ShareContent.ShareCommentary.Text = content.Text
	post.SpecificContent.ShareContent.ShareMediaCategory = "NONE"
	if content.LinkURL != "" {
		post.SpecificContent.ShareContent.ShareMediaCategory = "ARTICLE"
		post.SpecificContent.ShareContent.Media = []ugcMedia{{
			Status:      "READY",
			OriginalURL: content.LinkURL,
		}}
	}
	post.Visibility.MemberNetworkVisibility = "PUBLIC"

	body, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("linkedin: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("linkedin: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Value)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin: publish request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("linkedin: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, platformError(resp.StatusCode, data)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("linkedin: decode response: %w", err)
	}
	// The post URN also arrives in the X-RestLi-Id header; the body wins when
	// both are present.
	if payload.ID == "" {
		payload.ID = resp.Header.Get("X-Restli-Id")
	}
	if payload.ID == "" {
		return nil, &connectors.PlatformError{
			Platform: models.PlatformLinkedIn,
			Status:   resp.StatusCode,
			Message:  "publish succeeded but no post urn was returned",
		}
	}

	return &models.PublishResult{
		Success:     true,
		Platform:    models.PlatformLinkedIn,
		PostID:      payload.ID,
		Permalink:   "https://www.linkedin.com/feed/update/" + payload.ID,
		PublishedAt: time.Now().UTC(),
	}, nil
}

type ugcPost struct {
	Author          string `json:"author"`
	LifecycleState  string `json:"lifecycleState"`
	SpecificContent struct {
		ShareContent struct {
			ShareCommentary struct {
				Text string `json:"text"`
			} `json:"shareCommentary"`
			ShareMediaCategory string     `json:"shareMediaCategory"`
			Media              []ugcMedia `json:"media,omitempty"`
		} `json:"com.linkedin.ugc.ShareContent"`
	} `json:"specificContent"`
	Visibility struct {
		MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
	} `json:"visibility"`
}

type ugcMedia struct {
	Status      string `json:"status"`
	OriginalURL string `json:"originalUrl"`
}

// userinfo resolves the authenticated member's id via the OpenID endpoint.
func (a *Adapter) userinfo(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v2/userinfo", nil)
	if err != nil {
		return "", fmt.Errorf("linkedin: build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("linkedin: userinfo request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("linkedin: read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", platformError(resp.StatusCode, data)
	}

	var payload struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("linkedin: decode userinfo response: %w", err)
	}
	if payload.Sub == "" {
		return "", &connectors.PlatformError{
			Platform: models.PlatformLinkedIn,
			Status:   resp.StatusCode,
			Message:  "userinfo returned no member id",
		}
	}
	return payload.Sub, nil
}

func platformError(status int, body []byte) *connectors.PlatformError {
	perr := &connectors.PlatformError{
		Platform: models.PlatformLinkedIn,
		Status:   status,
		Message:  strings.TrimSpace(string(body)),
	}
	var payload struct {
		ServiceErrorCode int    `json:"serviceErrorCode"`
		Code             string `json:"code"`
		Message          string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Code != "" {
			perr.Code = payload.Code
		} else if payload.ServiceErrorCode != 0 {
			perr.Code = fmt.Sprintf("%d", payload.ServiceErrorCode)
		}
		if payload.Message != "" {
			perr.Message = payload.Message
		}
	}
	return perr
}

func estimateReach(content *models.Content) int {
	reach := baseReach
	if content.LinkURL != "" {
		reach += 120
	}
	if content.MediaURL != "" {
		reach += 200
	}
	reach += 25 * len(content.Tags)
	return reach
}
