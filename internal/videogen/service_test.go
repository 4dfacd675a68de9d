package videogen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/pkg/models"
)

type fakeResolver struct {
	configured map[string]bool
}

func (f *fakeResolver) Resolve(ctx context.Context, providerID, workspaceID string) (*credentials.Credential, error) {
	if !f.configured[providerID] {
		return nil, credentials.ErrNotConfigured
	}
	return &credentials.Credential{
		ProviderID:  providerID,
		WorkspaceID: workspaceID,
		Kind:        models.CredentialBYOK,
		Value:       "key",
	}, nil
}

func newTestService(configured map[string]bool, budget float64) *Service {
	return NewService(ServiceConfig{
		Store:    NewMemoryJobStore(),
		Resolver: &fakeResolver{configured: configured},
		Budget:   StaticBudget(budget),
	})
}

func TestStartRender_Queued(t *testing.T) {
	svc := newTestService(map[string]bool{"runway": true}, 100)
	job, err := svc.StartRender(context.Background(), "ws1", RenderRequest{
		ProviderID:      "runway",
		Prompt:          "a sunrise over mountains",
		DurationSeconds: 10,
	})
	if err != nil {
		t.Fatalf("StartRender() error = %v", err)
	}
	if job.Status != models.RenderQueued {
		t.Errorf("status = %q", job.Status)
	}
	if job.JobID == "" {
		t.Error("job id is empty")
	}
	if job.EstimatedCost != 7.50 {
		t.Errorf("estimated cost = %v", job.EstimatedCost)
	}
}

func TestStartRender_AwaitingProviderCarriesNextAction(t *testing.T) {
	svc := newTestService(map[string]bool{}, 100)
	job, err := svc.StartRender(context.Background(), "ws1", RenderRequest{
		ProviderID:      "runway",
		DurationSeconds: 10,
	})
	if err != nil {
		t.Fatalf("StartRender() error = %v", err)
	}
	if job.Status != models.RenderAwaitingProvider {
		t.Fatalf("status = %q", job.Status)
	}
	if job.NextAction == nil {
		t.Fatal("awaiting_provider job has no next action")
	}
	if job.NextAction.Action != "connect_provider" {
		t.Errorf("next action = %+v", job.NextAction)
	}
	if !job.Status.Terminal() {
		t.Error("awaiting_provider must be terminal for this attempt")
	}
}

func TestStartRender_BudgetExceeded(t *testing.T) {
	svc := newTestService(map[string]bool{"runway": true}, 1)
	job, err := svc.StartRender(context.Background(), "ws1", RenderRequest{
		ProviderID:      "runway",
		DurationSeconds: 30,
	})
	if err != nil {
		t.Fatalf("StartRender() error = %v", err)
	}
	if job.Status != models.RenderBudgetExceeded {
		t.Fatalf("status = %q", job.Status)
	}
	if job.ErrorCode != "budget_exceeded" || job.Error == "" {
		t.Errorf("job = %+v", job)
	}
}

func TestStartRender_ZeroBudgetMeansNoGate(t *testing.T) {
	svc := newTestService(map[string]bool{"runway": true}, 0)
	job, err := svc.StartRender(context.Background(), "ws1", RenderRequest{
		ProviderID:      "runway",
		DurationSeconds: 40,
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.RenderQueued {
		t.Errorf("status = %q", job.Status)
	}
}

func TestStartRender_TestRenderUnsupported(t *testing.T) {
	svc := newTestService(map[string]bool{"luma": true}, 100)
	_, err := svc.StartRender(context.Background(), "ws1", RenderRequest{
		ProviderID: "luma",
		TestRender: true,
	})
	if err == nil {
		t.Fatal("expected error for test render on unsupported provider")
	}
}

func TestStartRender_InactiveProvider(t *testing.T) {
	svc := newTestService(map[string]bool{"modelscope": true}, 100)
	_, err := svc.StartRender(context.Background(), "ws1", RenderRequest{
		ProviderID:      "modelscope",
		DurationSeconds: 5,
	})
	if err == nil {
		t.Fatal("expected error for inactive provider")
	}
}

func TestJobLifecycle_CompletedPath(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(map[string]bool{"runway": true}, 100)
	job, _ := svc.StartRender(ctx, "ws1", RenderRequest{ProviderID: "runway", DurationSeconds: 10})

	if _, err := svc.BeginProcessing(ctx, job.JobID); err != nil {
		t.Fatal(err)
	}
	updated, err := svc.SetProgress(ctx, job.JobID, 40)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Progress == nil || *updated.Progress != 40 {
		t.Errorf("progress = %v", updated.Progress)
	}

	done, err := svc.Complete(ctx, job.JobID, "https://cdn/preview.mp4", "", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != models.RenderCompleted {
		t.Errorf("status = %q", done.Status)
	}
	if done.Progress != nil {
		t.Error("completed job still carries progress")
	}

	// Terminal means terminal: no transition out of completed.
	if _, err := svc.Fail(ctx, job.JobID, "boom", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestComplete_RequiresOutputURL(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(map[string]bool{"runway": true}, 100)
	job, _ := svc.StartRender(ctx, "ws1", RenderRequest{ProviderID: "runway", DurationSeconds: 10})
	svc.BeginProcessing(ctx, job.JobID)

	if _, err := svc.Complete(ctx, job.JobID, "", "", "", nil); err == nil {
		t.Error("completed a job with no preview or output url")
	}
}

func TestSetProgress_OnlyWhileProcessing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(map[string]bool{"runway": true}, 100)
	job, _ := svc.StartRender(ctx, "ws1", RenderRequest{ProviderID: "runway", DurationSeconds: 10})

	if _, err := svc.SetProgress(ctx, job.JobID, 10); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("progress on queued job: err = %v", err)
	}
	if _, err := svc.SetProgress(ctx, job.JobID, 101); err == nil {
		t.Error("accepted out-of-range progress")
	}
}

func TestFail_CredentialCodeAddsReconnectHint(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(map[string]bool{"runway": true}, 100)
	job, _ := svc.StartRender(ctx, "ws1", RenderRequest{ProviderID: "runway", DurationSeconds: 10})
	svc.BeginProcessing(ctx, job.JobID)

	failed, err := svc.Fail(ctx, job.JobID, "token was revoked upstream", "credential_expired")
	if err != nil {
		t.Fatal(err)
	}
	if failed.NextAction == nil || failed.NextAction.Action != "connect_provider" {
		t.Errorf("next action = %+v", failed.NextAction)
	}
}

func TestFail_RequiresMessage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(map[string]bool{"runway": true}, 100)
	job, _ := svc.StartRender(ctx, "ws1", RenderRequest{ProviderID: "runway", DurationSeconds: 10})
	svc.BeginProcessing(ctx, job.JobID)

	if _, err := svc.Fail(ctx, job.JobID, "", "x"); err == nil {
		t.Error("failed a job with no error message")
	}
}

func TestPrune_RemovesOnlyOldTerminalJobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryJobStore()
	svc := NewService(ServiceConfig{
		Store:    store,
		Resolver: &fakeResolver{configured: map[string]bool{"runway": true}},
		Budget:   StaticBudget(100),
	})

	fresh, _ := svc.StartRender(ctx, "ws1", RenderRequest{ProviderID: "runway", DurationSeconds: 10})
	stale, _ := svc.StartRender(ctx, "ws1", RenderRequest{ProviderID: "runway", DurationSeconds: 10})
	svc.BeginProcessing(ctx, stale.JobID)
	svc.Complete(ctx, stale.JobID, "https://cdn/p.mp4", "", "", nil)

	// Age the completed job past the retention window.
	store.Update(ctx, stale.JobID, func(j *Job) error { return nil })
	store.mu.Lock()
	store.jobs[stale.JobID].UpdatedAt = time.Now().Add(-48 * time.Hour)
	store.mu.Unlock()

	pruned, err := svc.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if _, err := svc.Get(ctx, stale.JobID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("stale job still present: %v", err)
	}
	if _, err := svc.Get(ctx, fresh.JobID); err != nil {
		t.Errorf("fresh queued job was pruned: %v", err)
	}
}
