// Package publish orchestrates one publish attempt end to end: resolve the
// workspace credential, dry-run the content against the platform, then
// perform the side-effecting call. Connector and provider failures are
// normalized into result error fields here; raw platform errors never cross
// this boundary.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/haasonsaas/syndicate/internal/connectors"
	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/internal/observability"
	"github.com/haasonsaas/syndicate/internal/upload"
	"github.com/haasonsaas/syndicate/pkg/models"
)

// CredentialResolver resolves a usable platform credential for a workspace.
type CredentialResolver interface {
	Resolve(ctx context.Context, providerID, workspaceID string) (*credentials.Credential, error)
}

// Bookkeeper records publish outcomes on the workspace's channel records.
type Bookkeeper interface {
	RecordPublish(ctx context.Context, workspaceID string, platform models.Platform)
	RecordError(ctx context.Context, workspaceID string, platform models.Platform, message string)
}

// Orchestrator runs dry-run and publish flows over the connector registry.
type Orchestrator struct {
	registry *connectors.Registry
	resolver CredentialResolver
	books    Bookkeeper
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Config holds configuration for the orchestrator.
type Config struct {
	Registry *connectors.Registry
	Resolver CredentialResolver

	// Books is optional; without it publish outcomes are not recorded on
	// channel records.
	Books Bookkeeper

	// Metrics is optional; without it publish outcomes are not counted.
	Metrics *observability.Metrics

	Logger *slog.Logger
}

// NewOrchestrator creates a publish orchestrator.
func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: cfg.Registry,
		resolver: cfg.Resolver,
		books:    cfg.Books,
		metrics:  cfg.Metrics,
		logger:   logger.With("component", "publish"),
	}
}

// DryRun validates a prospective publish without side effects. A missing
// credential is a failed credential check, not an error: the caller gets the
// full validation picture either way.
func (o *Orchestrator) DryRun(ctx context.Context, workspaceID string, platform models.Platform, content *models.Content) (*models.DryRunResult, error) {
	connector, ok := o.registry.Get(platform)
	if !ok {
		return nil, fmt.Errorf("publish: no connector for platform %q", platform)
	}

	cred, err := o.resolver.Resolve(ctx, string(platform), workspaceID)
	if err != nil && !errors.Is(err, credentials.ErrNotConfigured) {
		return nil, fmt.Errorf("publish: resolve credential: %w", err)
	}
	result := connector.DryRun(ctx, content, cred)
	if o.metrics != nil {
		outcome := "fail"
		if result.Success {
			outcome = "pass"
		}
		o.metrics.DryRunCounter.WithLabelValues(string(platform), outcome).Inc()
	}
	return result, nil
}

// Publish performs the real publish. The returned result always carries the
// outcome; failures land in its Error and ErrorCode fields instead of
// propagating as platform exceptions. A machine-readable platform code is
// preserved whenever the platform supplied one.
func (o *Orchestrator) Publish(ctx context.Context, workspaceID string, platform models.Platform, content *models.Content) *models.PublishResult {
	if o.metrics != nil {
		start := time.Now()
		defer func() {
			o.metrics.PublishDuration.WithLabelValues(string(platform)).Observe(time.Since(start).Seconds())
		}()
	}

	connector, ok := o.registry.Get(platform)
	if !ok {
		return o.failure(ctx, workspaceID, platform,
			fmt.Sprintf("no connector for platform %q", platform), "unsupported_platform")
	}

	cred, err := o.resolver.Resolve(ctx, string(platform), workspaceID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotConfigured) {
			return o.failure(ctx, workspaceID, platform,
				fmt.Sprintf("%s is not connected for this workspace", platform), "not_configured")
		}
		return o.failure(ctx, workspaceID, platform, err.Error(), "credential_store_error")
	}

	result, err := connector.Publish(ctx, content, cred)
	if err != nil {
		normalized := o.normalize(platform, err)
		o.record(ctx, workspaceID, platform, normalized)
		o.logger.Warn("publish failed",
			"platform", platform,
			"workspace_id", workspaceID,
			"error_code", normalized.ErrorCode,
			"error", normalized.Error)
		return normalized
	}
	if result == nil {
		// Absence of a result is itself an error, never an empty success.
		return o.failure(ctx, workspaceID, platform,
			"platform returned no result", "provider_error")
	}

	o.record(ctx, workspaceID, platform, result)
	o.logger.Info("published",
		"platform", platform,
		"workspace_id", workspaceID,
		"post_id", result.PostID)
	return result
}

// normalize maps the error taxonomy into result fields. Platform codes pass
// through untouched; everything else gets a stable orchestrator code.
func (o *Orchestrator) normalize(platform models.Platform, err error) *models.PublishResult {
	result := &models.PublishResult{
		Success:  false,
		Platform: platform,
		Error:    err.Error(),
	}

	var verr *connectors.ValidationError
	var perr *connectors.PlatformError
	var uerr *upload.PhaseError
	switch {
	case errors.Is(err, credentials.ErrNotConfigured):
		result.ErrorCode = "not_configured"
	case errors.As(err, &verr):
		result.ErrorCode = "validation_failed"
		result.Error = verr.Message
	case errors.As(err, &perr):
		result.ErrorCode = perr.Code
		if result.ErrorCode == "" {
			result.ErrorCode = fmt.Sprintf("http_%d", perr.Status)
		}
		result.Error = perr.Message
	case errors.As(err, &uerr):
		// The phase code survives even when the cause was transport
		// flakiness: callers distinguish "our asset store" from "platform"
		// by phase, and learn retryability from the flag.
		result.ErrorCode = "upload_" + string(uerr.Phase) + "_failed"
		result.Retryable = IsTransient(err)
	case IsTransient(err):
		result.ErrorCode = "transient_network_error"
		result.Retryable = true
	default:
		result.ErrorCode = "provider_error"
	}
	return result
}

func (o *Orchestrator) failure(ctx context.Context, workspaceID string, platform models.Platform, message, code string) *models.PublishResult {
	result := &models.PublishResult{
		Success:   false,
		Platform:  platform,
		Error:     message,
		ErrorCode: code,
	}
	o.record(ctx, workspaceID, platform, result)
	return result
}

func (o *Orchestrator) record(ctx context.Context, workspaceID string, platform models.Platform, result *models.PublishResult) {
	if o.metrics != nil {
		status := "error"
		if result.Success {
			status = "success"
		}
		o.metrics.PublishCounter.WithLabelValues(string(platform), status).Inc()
	}
	if o.books == nil {
		return
	}
	if result.Success {
		o.books.RecordPublish(ctx, workspaceID, platform)
		return
	}
	o.books.RecordError(ctx, workspaceID, platform, result.Error)
}
