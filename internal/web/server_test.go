package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haasonsaas/syndicate/internal/ai"
	"github.com/haasonsaas/syndicate/internal/channels"
	"github.com/haasonsaas/syndicate/internal/connectors"
	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/internal/publish"
	"github.com/haasonsaas/syndicate/internal/versions"
	"github.com/haasonsaas/syndicate/internal/videogen"
	"github.com/haasonsaas/syndicate/pkg/models"
)

type stubConnector struct{}

func (stubConnector) Platform() models.Platform { return models.PlatformTwitter }

func (stubConnector) ValidateToken(ctx context.Context, cred *credentials.Credential) bool {
	return true
}

func (stubConnector) DryRun(ctx context.Context, content *models.Content, cred *credentials.Credential) *models.DryRunResult {
	return &models.DryRunResult{Platform: models.PlatformTwitter, Success: true}
}

func (stubConnector) Publish(ctx context.Context, content *models.Content, cred *credentials.Credential) (*models.PublishResult, error) {
	return &models.PublishResult{Success: true, Platform: models.PlatformTwitter, PostID: "1"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := credentials.NewMemoryStore()
	_ = store.Put(context.Background(), "twitter", "ws1", &models.CredentialRecord{
		Kind: models.CredentialBYOK,
		Key:  "byok-key",
	})
	resolver := credentials.NewResolver(store, nil)

	registry := connectors.NewRegistry()
	registry.Register(stubConnector{})

	return NewServer(Config{
		Addr: ":0",
		Orchestrator: publish.NewOrchestrator(publish.Config{
			Registry: registry,
			Resolver: resolver,
		}),
		Renders: videogen.NewService(videogen.ServiceConfig{
			Store:    videogen.NewMemoryJobStore(),
			Resolver: resolver,
			Budget:   videogen.StaticBudget(100),
		}),
		Channels:  channels.NewService(channels.NewMemoryStore(), nil),
		Generator: ai.NewClient(ai.NewSelector(resolver), ai.Config{}),
		Versions:  versions.NewMemoryStore(),
	})
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestProviders_FiltersInactive(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/providers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Providers []videogen.ProviderMeta `json:"providers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, p := range body.Providers {
		if p.Status != videogen.StatusActive {
			t.Errorf("inactive provider %q in listing", p.ID)
		}
	}
}

func TestEstimate(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/estimate",
		strings.NewReader(`{"providerId":"runway","durationSeconds":10}`))
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		EstimatedCost float64 `json:"estimatedCost"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.EstimatedCost != 7.50 {
		t.Errorf("cost = %v", body.EstimatedCost)
	}
}

func TestEstimate_UnknownProvider(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/estimate",
		strings.NewReader(`{"providerId":"nope","durationSeconds":10}`))
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestPublishEndpoint(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/workspaces/ws1/publish/twitter",
		strings.NewReader(`{"text":"hello"}`))
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var result models.PublishResult
	json.Unmarshal(rec.Body.Bytes(), &result)
	if !result.Success || result.PostID != "1" {
		t.Errorf("result = %+v", result)
	}
}

func TestRenderLifecycleEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/workspaces/ws1/renders",
		strings.NewReader(`{"providerId":"runway","prompt":"a sunrise","durationSeconds":10}`))
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var job videogen.Job
	json.Unmarshal(rec.Body.Bytes(), &job)
	// twitter is the only configured credential, so the render provider gate
	// reports awaiting_provider.
	if job.Status != models.RenderAwaitingProvider {
		t.Errorf("status = %q", job.Status)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/renders/"+job.JobID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/renders/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d", rec.Code)
	}
}

func TestGenerate_NoProviderConnected(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/workspaces/ws1/generate",
		strings.NewReader(`{"prompt":"write a post"}`))
	server.Handler().ServeHTTP(rec, req)
	// ws1 has a twitter credential but no AI provider key.
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestVersionEndpoints(t *testing.T) {
	server := newTestServer(t)

	var created [2]versions.Version
	for i := range created {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/content/post-1/versions",
			strings.NewReader(`{"label":"draft"}`))
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
		}
		json.Unmarshal(rec.Body.Bytes(), &created[i])
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/v1/content/post-1/versions/"+created[1].ID+"/finalize", nil)
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d: %s", rec.Code, rec.Body.String())
	}
	var final versions.Version
	json.Unmarshal(rec.Body.Bytes(), &final)
	if final.ID != created[1].ID || !final.Final {
		t.Errorf("final = %+v", final)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/content/post-1/versions/unknown/finalize", nil)
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("finalize unknown status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
