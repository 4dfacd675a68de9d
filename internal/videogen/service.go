package videogen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/internal/observability"
	"github.com/haasonsaas/syndicate/pkg/models"
)

// ErrInvalidTransition is returned when a status change violates the job
// state machine.
var ErrInvalidTransition = errors.New("invalid render status transition")

// CredentialResolver resolves a usable provider credential for a workspace.
type CredentialResolver interface {
	Resolve(ctx context.Context, providerID, workspaceID string) (*credentials.Credential, error)
}

// Budget reports the render spending cap for a workspace.
type Budget interface {
	Cap(ctx context.Context, workspaceID string) (float64, error)
}

// StaticBudget applies the same cap to every workspace.
type StaticBudget float64

// Cap implements Budget.
func (b StaticBudget) Cap(ctx context.Context, workspaceID string) (float64, error) {
	return float64(b), nil
}

// RenderRequest describes one requested render.
type RenderRequest struct {
	ProviderID      string
	Prompt          string
	DurationSeconds int
	TestRender      bool
}

// Service owns the render job lifecycle: admission (credential and budget
// gates), status transitions, and pruning.
type Service struct {
	store    JobStore
	resolver CredentialResolver
	budget   Budget
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceConfig holds configuration for the render service.
type ServiceConfig struct {
	Store    JobStore
	Resolver CredentialResolver
	Budget   Budget

	// Metrics is optional; without it job admissions are not counted.
	Metrics *observability.Metrics

	Logger *slog.Logger
}

// NewService creates a render job service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	budget := cfg.Budget
	if budget == nil {
		budget = StaticBudget(0) // zero cap means no budget gate
	}
	return &Service{
		store:    cfg.Store,
		resolver: cfg.Resolver,
		budget:   budget,
		metrics:  cfg.Metrics,
		logger:   logger.With("component", "videogen"),
		now:      time.Now,
	}
}

// StartRender admits a render request and creates its job. A job always comes
// back when admission logic ran: missing credentials and blown budgets
// surface as diagnostic job states, not Go errors. Retrying either condition
// means creating a new job, never flipping this one.
func (s *Service) StartRender(ctx context.Context, workspaceID string, req RenderRequest) (*Job, error) {
	meta, err := GetProvider(req.ProviderID)
	if err != nil {
		return nil, err
	}
	if meta.Status != StatusActive {
		return nil, fmt.Errorf("videogen: provider %q is not active", req.ProviderID)
	}

	var cost float64
	if req.TestRender {
		cost, err = EstimateTestRenderCost(req.ProviderID)
		if err != nil {
			return nil, err
		}
		if cost == 0 {
			return nil, fmt.Errorf("videogen: provider %q does not support test renders", req.ProviderID)
		}
	} else {
		cost, err = EstimateCost(req.ProviderID, req.DurationSeconds)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	job := &Job{
		RenderResult: models.RenderResult{
			JobID:      uuid.NewString(),
			ProviderID: req.ProviderID,
			Status:     models.RenderQueued,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		WorkspaceID:     workspaceID,
		Prompt:          req.Prompt,
		DurationSeconds: req.DurationSeconds,
		TestRender:      req.TestRender,
		EstimatedCost:   cost,
	}

	if _, err := s.resolver.Resolve(ctx, req.ProviderID, workspaceID); err != nil {
		if !errors.Is(err, credentials.ErrNotConfigured) {
			return nil, err
		}
		job.Status = models.RenderAwaitingProvider
		job.Error = fmt.Sprintf("%s is not connected for this workspace", meta.Name)
		job.ErrorCode = "provider_not_connected"
		job.NextAction = connectAction(meta)
	} else if budgetCap, err := s.budget.Cap(ctx, workspaceID); err != nil {
		return nil, err
	} else if budgetCap > 0 && cost > budgetCap {
		job.Status = models.RenderBudgetExceeded
		job.Error = (&BudgetError{ProviderID: req.ProviderID, EstimatedCost: cost, Budget: budgetCap}).Error()
		job.ErrorCode = "budget_exceeded"
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("videogen: persist job: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RenderJobCounter.WithLabelValues(job.ProviderID, string(job.Status)).Inc()
		s.metrics.RenderCostEstimate.WithLabelValues(job.ProviderID).Observe(cost)
	}
	s.logger.Info("render job created",
		"job_id", job.JobID,
		"provider", job.ProviderID,
		"workspace_id", workspaceID,
		"status", job.Status,
		"estimated_cost", cost)
	return job, nil
}

// BeginProcessing moves a queued job into processing.
func (s *Service) BeginProcessing(ctx context.Context, jobID string) (*Job, error) {
	return s.transition(ctx, jobID, models.RenderProcessing, func(job *Job) {})
}

// SetProgress records provider-reported progress. Progress exists only while
// the job is processing and is never fabricated.
func (s *Service) SetProgress(ctx context.Context, jobID string, progress int) (*Job, error) {
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("videogen: progress %d out of range", progress)
	}
	return s.store.Update(ctx, jobID, func(job *Job) error {
		if job.Status != models.RenderProcessing {
			return fmt.Errorf("%w: progress update in status %q", ErrInvalidTransition, job.Status)
		}
		p := progress
		job.Progress = &p
		return nil
	})
}

// Complete marks a processing job completed with its output locations.
func (s *Service) Complete(ctx context.Context, jobID, previewURL, outputURL, thumbnailURL string, storyboard []string) (*Job, error) {
	if previewURL == "" && outputURL == "" {
		return nil, fmt.Errorf("videogen: completed job needs a preview or output url")
	}
	return s.transition(ctx, jobID, models.RenderCompleted, func(job *Job) {
		job.PreviewURL = previewURL
		job.OutputURL = outputURL
		job.ThumbnailURL = thumbnailURL
		job.Storyboard = storyboard
		job.Progress = nil
	})
}

// Fail marks a processing job failed. When the failure is a credential
// problem the job carries the reconnect hint so callers never need
// provider-specific knowledge to tell the user what to do.
func (s *Service) Fail(ctx context.Context, jobID, message, code string) (*Job, error) {
	if message == "" {
		return nil, fmt.Errorf("videogen: failed job needs an error message")
	}
	return s.transition(ctx, jobID, models.RenderFailed, func(job *Job) {
		job.Error = message
		job.ErrorCode = code
		job.Progress = nil
		if code == "provider_not_connected" || code == "credential_expired" {
			if meta, err := GetProvider(job.ProviderID); err == nil {
				job.NextAction = connectAction(meta)
			}
		}
	})
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, jobID string) (*Job, error) {
	return s.store.Get(ctx, jobID)
}

// List returns a workspace's jobs.
func (s *Service) List(ctx context.Context, workspaceID string) ([]*Job, error) {
	return s.store.List(ctx, workspaceID)
}

// Prune removes terminal jobs older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int, error) {
	pruned, err := s.store.PruneTerminal(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		s.logger.Info("pruned terminal render jobs", "count", pruned)
	}
	return pruned, nil
}

func (s *Service) transition(ctx context.Context, jobID string, next models.RenderStatus, apply func(*Job)) (*Job, error) {
	job, err := s.store.Update(ctx, jobID, func(job *Job) error {
		if !job.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, next)
		}
		job.Status = next
		apply(job)
		return job.Validate()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("render job transitioned", "job_id", jobID, "status", next)
	return job, nil
}

func connectAction(meta *ProviderMeta) *models.NextAction {
	return &models.NextAction{
		Label:  fmt.Sprintf("Connect %s", meta.Name),
		Link:   fmt.Sprintf("/settings/providers/%s", meta.ID),
		Action: "connect_provider",
	}
}
