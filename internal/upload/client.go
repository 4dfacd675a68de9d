// Package upload implements the two-phase resumable upload protocol used for
// large media transfers to video hosting platforms. Phase one posts the video
// metadata and receives a session URL in the Location header; phase two
// streams the media bytes to that session with a single PUT. There is no
// resumption-token persistence at this layer: a crash between phases restarts
// from phase one with a fresh session.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/haasonsaas/syndicate/internal/observability"
)

const (
	// DefaultInitiateURL is the YouTube resumable upload initiation endpoint.
	DefaultInitiateURL = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"

	// DefaultPermalinkTemplate formats a public watch URL from a video id.
	DefaultPermalinkTemplate = "https://www.youtube.com/watch?v=%s"
)

// Metadata describes the video being uploaded.
type Metadata struct {
	Title       string
	Description string
	Tags        []string

	// Visibility is the platform privacy status (default: "private").
	Visibility string
}

// Result is the outcome of a completed upload.
type Result struct {
	VideoID   string `json:"videoId"`
	Permalink string `json:"permalink"`
}

// Client drives the resumable upload protocol.
type Client struct {
	initiateURL       string
	permalinkTemplate string
	client            *http.Client
	fetcher           SourceFetcher
	metrics           *observability.Metrics
	logger            *slog.Logger
}

// Config holds configuration for the upload client.
type Config struct {
	// InitiateURL overrides the session initiation endpoint (used in tests).
	InitiateURL string

	// PermalinkTemplate overrides the permalink format string.
	PermalinkTemplate string

	// Timeout is the per-request HTTP timeout (default: 5m, uploads are big).
	Timeout time.Duration

	// Fetcher retrieves source media bytes (default: HTTP fetcher).
	Fetcher SourceFetcher

	// Metrics is optional; without it phase outcomes are not counted.
	Metrics *observability.Metrics

	// Logger is an optional logger for upload diagnostics.
	Logger *slog.Logger
}

// NewClient creates a resumable upload client.
func NewClient(cfg Config) *Client {
	initiateURL := cfg.InitiateURL
	if initiateURL == "" {
		initiateURL = DefaultInitiateURL
	}
	template := cfg.PermalinkTemplate
	if template == "" {
		template = DefaultPermalinkTemplate
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	httpClient := &http.Client{Timeout: timeout}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(httpClient)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		initiateURL:       initiateURL,
		permalinkTemplate: template,
		client:            httpClient,
		fetcher:           fetcher,
		metrics:           cfg.Metrics,
		logger:            logger.With("component", "upload"),
	}
}

// Upload runs the full protocol: initiate a session, fetch the source media,
// stream it to the session URL, and extract the remote object id.
func (c *Client) Upload(ctx context.Context, accessToken string, meta Metadata, sourceURL string) (*Result, error) {
	sessionURL, err := c.initiate(ctx, accessToken, meta)
	if err != nil {
		c.countPhase(err)
		return nil, err
	}

	body, contentType, length, err := c.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		perr := &PhaseError{
			Phase:   PhaseFetchSource,
			Message: fmt.Sprintf("could not fetch source media from %s", sourceURL),
			Err:     err,
		}
		c.countPhase(perr)
		return nil, perr
	}
	defer body.Close()

	result, err := c.transfer(ctx, sessionURL, body, contentType, length)
	if err != nil {
		c.countPhase(err)
		return nil, err
	}

	c.countPhase(nil)
	c.logger.Info("upload complete", "video_id", result.VideoID)
	return result, nil
}

// countPhase records the outcome of an upload attempt. A nil error counts as
// a completed finalize phase.
func (c *Client) countPhase(err error) {
	if c.metrics == nil {
		return
	}
	if err == nil {
		c.metrics.UploadPhaseCounter.WithLabelValues(string(PhaseFinalize), "success").Inc()
		return
	}
	var perr *PhaseError
	if errors.As(err, &perr) {
		c.metrics.UploadPhaseCounter.WithLabelValues(string(perr.Phase), "error").Inc()
	}
}

// initiate posts the video metadata and returns the session URL from the
// Location header. A non-2xx response is terminal for this attempt and the
// platform's error text is surfaced verbatim.
func (c *Client) initiate(ctx context.Context, accessToken string, meta Metadata) (string, error) {
	visibility := meta.Visibility
	if visibility == "" {
		visibility = "private"
	}
	payload := map[string]any{
		"snippet": map[string]any{
			"title":       meta.Title,
			"description": meta.Description,
			"tags":        meta.Tags,
		},
		"status": map[string]any{
			"privacyStatus": visibility,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", &PhaseError{Phase: PhaseInitiate, Message: "encode metadata", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.initiateURL, bytes.NewReader(raw))
	if err != nil {
		return "", &PhaseError{Phase: PhaseInitiate, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &PhaseError{Phase: PhaseInitiate, Message: "session initiation request failed", Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &PhaseError{
			Phase:   PhaseInitiate,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(data)),
		}
	}

	sessionURL := resp.Header.Get("Location")
	if sessionURL == "" {
		return "", &PhaseError{
			Phase:   PhaseInitiate,
			Status:  resp.StatusCode,
			Message: "initiation response carried no Location header",
		}
	}
	return sessionURL, nil
}

// transfer streams the media bytes to the session URL and extracts the new
// object id from the response body.
func (c *Client) transfer(ctx context.Context, sessionURL string, body io.Reader, contentType string, length int64) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, body)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseTransfer, Message: "build request", Err: err}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if length >= 0 {
		req.ContentLength = length
		req.Header.Set("Content-Length", strconv.FormatInt(length, 10))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseTransfer, Message: "byte transfer failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &PhaseError{Phase: PhaseTransfer, Message: "read response", Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &PhaseError{
			Phase:   PhaseTransfer,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(data)),
		}
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &PhaseError{Phase: PhaseFinalize, Message: "decode response", Err: err}
	}
	if payload.ID == "" {
		return nil, &PhaseError{
			Phase:   PhaseFinalize,
			Status:  resp.StatusCode,
			Message: "upload response carried no object id",
		}
	}

	return &Result{
		VideoID:   payload.ID,
		Permalink: fmt.Sprintf(c.permalinkTemplate, payload.ID),
	}, nil
}
