// Package youtube implements the publishing connector for YouTube. Unlike
// the text platforms, publishing here is a large binary transfer delegated to
// the resumable upload client.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/haasonsaas/syndicate/internal/connectors"
	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/internal/upload"
	"github.com/haasonsaas/syndicate/pkg/models"
)

const (
	// APIBase is the YouTube Data API endpoint.
	APIBase = "https://www.googleapis.com/youtube/v3"

	// TitleLimit is the maximum video title length.
	TitleLimit = 100

	// DescriptionLimit is the maximum video description length.
	DescriptionLimit = 5000

	// baseReach is the reach heuristic baseline for a median channel.
	baseReach = 600
)

// Uploader runs the resumable upload protocol for the publish phase.
type Uploader interface {
	Upload(ctx context.Context, accessToken string, meta upload.Metadata, sourceURL string) (*upload.Result, error)
}

// Adapter implements connectors.Connector for YouTube.
type Adapter struct {
	baseURL  string
	client   *http.Client
	uploader Uploader
	logger   *slog.Logger
}

// Config holds configuration for the YouTube adapter.
type Config struct {
	// BaseURL overrides the Data API endpoint (used in tests).
	BaseURL string

	// Uploader overrides the resumable upload client (used in tests).
	Uploader Uploader

	// Timeout is the HTTP client timeout for non-upload calls (default: 15s).
	Timeout time.Duration

	// Logger is an optional logger for adapter diagnostics.
	Logger *slog.Logger
}

// New creates a YouTube connector.
func New(cfg Config) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = APIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	uploader := cfg.Uploader
	if uploader == nil {
		uploader = upload.NewClient(upload.Config{Logger: cfg.Logger})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		uploader: uploader,
		logger:   logger.With("connector", "youtube"),
	}
}

// Platform returns the platform identifier.
func (a *Adapter) Platform() models.Platform {
	return models.PlatformYouTube
}

// ValidateContent is the pure offline validation for YouTube content. The
// character check covers title and description limits; the format check
// requires a title and a source media URL, since a video upload without media
// cannot succeed.
func ValidateContent(content *models.Content) models.DryRunChecks {
	return models.DryRunChecks{
		CharacterLimitOk: utf8.RuneCountInString(content.Title) <= TitleLimit &&
			utf8.RuneCountInString(content.Description) <= DescriptionLimit,
		FormatOk: strings.TrimSpace(content.Title) != "" && content.MediaURL != "",
	}
}

// ValidateToken checks token liveness by listing the caller's own channel.
func (a *Adapter) ValidateToken(ctx context.Context, cred *credentials.Credential) bool {
	if cred == nil || cred.Value == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/channels?part=id&mine=true", nil)
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

// DryRun validates content offline first. Content that fails offline checks
// never touches the network.
func (a *Adapter) DryRun(ctx context.Context, content *models.Content, cred *credentials.Credential) *models.DryRunResult {
	checks := ValidateContent(content)
	if checks.CharacterLimitOk && checks.FormatOk {
		checks.CredentialOk = a.ValidateToken(ctx, cred)
	}

	result := &models.DryRunResult{
		Platform:       models.PlatformYouTube,
		Checks:         checks,
		Success:        checks.Ok(),
		EstimatedReach: estimateReach(content),
	}
	switch {
	case !checks.CharacterLimitOk:
		result.Message = fmt.Sprintf("title must be at most %d characters and description at most %d", TitleLimit, DescriptionLimit)
	case !checks.FormatOk:
		result.Message = "a title and a source media url are required"
	case !checks.CredentialOk:
		result.Message = "connected account token is not valid"
	default:
		result.Message = "ready to publish"
	}
	return result
}

// Publish uploads the source media via the resumable protocol and returns the
// watch permalink.
func (a *Adapter) Publish(ctx context.Context, content *models.Content, cred *credentials.Credential) (*models.PublishResult, error) {
	if checks := ValidateContent(content); !checks.CharacterLimitOk || !checks.FormatOk {
		return nil, &connectors.ValidationError{
			Platform: models.PlatformYouTube,
			Checks:   checks,
			Message:  "video must have a source media url, a title within limits, and a description within limits",
		}
	}
	if cred == nil || cred.Value == "" {
		return nil, credentials.ErrNotConfigured
	}

	result, err := a.uploader.Upload(ctx, cred.Value, upload.Metadata{
		Title:       content.Title,
		Description: content.Description,
		Tags:        content.Tags,
	}, content.MediaURL)
	if err != nil {
		return nil, err
	}

	return &models.PublishResult{
		Success:     true,
		Platform:    models.PlatformYouTube,
		PostID:      result.VideoID,
		Permalink:   result.Permalink,
		PublishedAt: time.Now().UTC(),
	}, nil
}

func estimateReach(content *models.Content) int {
	reach := baseReach
	if content.Description != "" {
		reach += 50
	}
	reach += 20 * len(content.Tags)
	return reach
}
