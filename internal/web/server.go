// Package web exposes the HTTP API: publish and dry-run operations, render
// job management, channel listings, the provider catalog, and the Prometheus
// metrics endpoint.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/syndicate/internal/ai"
	"github.com/haasonsaas/syndicate/internal/channels"
	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/internal/publish"
	"github.com/haasonsaas/syndicate/internal/versions"
	"github.com/haasonsaas/syndicate/internal/videogen"
	"github.com/haasonsaas/syndicate/pkg/models"
)

// VersionStore is the content version surface the API needs: creation,
// listing, and the single-final-version promotion.
type VersionStore interface {
	versions.Finalizer
	Add(ctx context.Context, v *versions.Version) error
	List(ctx context.Context, contentID string) ([]*versions.Version, error)
}

// Server is the HTTP API surface.
type Server struct {
	orchestrator *publish.Orchestrator
	renders      *videogen.Service
	channels     *channels.Service
	generator    *ai.Client
	versions     VersionStore
	logger       *slog.Logger
	httpServer   *http.Server
}

// Config holds configuration for the HTTP server.
type Config struct {
	Addr         string
	Orchestrator *publish.Orchestrator
	Renders      *videogen.Service
	Channels     *channels.Service
	Generator    *ai.Client
	Versions     VersionStore
	Logger       *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		orchestrator: cfg.Orchestrator,
		renders:      cfg.Renders,
		channels:     cfg.Channels,
		generator:    cfg.Generator,
		versions:     cfg.Versions,
		logger:       logger.With("component", "web"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/providers", s.handleProviders)
	mux.HandleFunc("POST /v1/estimate", s.handleEstimate)
	mux.HandleFunc("GET /v1/workspaces/{workspace}/channels", s.handleListChannels)
	mux.HandleFunc("POST /v1/workspaces/{workspace}/publish/{platform}", s.handlePublish)
	mux.HandleFunc("POST /v1/workspaces/{workspace}/dryrun/{platform}", s.handleDryRun)
	mux.HandleFunc("POST /v1/workspaces/{workspace}/renders", s.handleStartRender)
	mux.HandleFunc("GET /v1/renders/{job}", s.handleGetRender)
	mux.HandleFunc("POST /v1/workspaces/{workspace}/generate", s.handleGenerate)
	mux.HandleFunc("POST /v1/content/{content}/versions", s.handleAddVersion)
	mux.HandleFunc("GET /v1/content/{content}/versions", s.handleListVersions)
	mux.HandleFunc("POST /v1/content/{content}/versions/{version}/finalize", s.handleFinalizeVersion)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying handler (used in tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	var providers []videogen.ProviderMeta
	if category != "" {
		providers = videogen.ProvidersByCategory(videogen.ProviderCategory(category))
	} else {
		providers = videogen.ActiveProviders()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

type estimateRequest struct {
	ProviderID      string `json:"providerId"`
	DurationSeconds int    `json:"durationSeconds"`
	TestRender      bool   `json:"testRender"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var (
		cost float64
		err  error
	)
	if req.TestRender {
		cost, err = videogen.EstimateTestRenderCost(req.ProviderID)
	} else {
		cost, err = videogen.EstimateCost(req.ProviderID, req.DurationSeconds)
	}
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"providerId":    req.ProviderID,
		"estimatedCost": cost,
	})
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	views, err := s.channels.List(r.Context(), r.PathValue("workspace"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list channels")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"channels": views})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var content models.Content
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result := s.orchestrator.Publish(r.Context(),
		r.PathValue("workspace"), models.Platform(r.PathValue("platform")), &content)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, result)
}

func (s *Server) handleDryRun(w http.ResponseWriter, r *http.Request) {
	var content models.Content
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.orchestrator.DryRun(r.Context(),
		r.PathValue("workspace"), models.Platform(r.PathValue("platform")), &content)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type renderRequest struct {
	ProviderID      string `json:"providerId"`
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"durationSeconds"`
	TestRender      bool   `json:"testRender"`
}

func (s *Server) handleStartRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	job, err := s.renders.StartRender(r.Context(), r.PathValue("workspace"), videogen.RenderRequest{
		ProviderID:      req.ProviderID,
		Prompt:          req.Prompt,
		DurationSeconds: req.DurationSeconds,
		TestRender:      req.TestRender,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetRender(w http.ResponseWriter, r *http.Request) {
	job, err := s.renders.Get(r.Context(), r.PathValue("job"))
	if err != nil {
		if errors.Is(err, videogen.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "render job not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load render job")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.writeError(w, http.StatusServiceUnavailable, "text generation is not enabled")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	text, err := s.generator.Generate(r.Context(), r.PathValue("workspace"), ai.GenerateRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		if errors.Is(err, credentials.ErrNotConfigured) {
			s.writeError(w, http.StatusUnprocessableEntity, "no text generation provider is connected for this workspace")
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

type addVersionRequest struct {
	Label string `json:"label"`
}

func (s *Server) handleAddVersion(w http.ResponseWriter, r *http.Request) {
	if s.versions == nil {
		s.writeError(w, http.StatusServiceUnavailable, "content versions are not enabled")
		return
	}
	var req addVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v := &versions.Version{
		ID:        uuid.NewString(),
		ContentID: r.PathValue("content"),
		Label:     req.Label,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.versions.Add(r.Context(), v); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to record version")
		return
	}
	s.writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	if s.versions == nil {
		s.writeError(w, http.StatusServiceUnavailable, "content versions are not enabled")
		return
	}
	list, err := s.versions.List(r.Context(), r.PathValue("content"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list versions")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"versions": list})
}

func (s *Server) handleFinalizeVersion(w http.ResponseWriter, r *http.Request) {
	if s.versions == nil {
		s.writeError(w, http.StatusServiceUnavailable, "content versions are not enabled")
		return
	}
	err := s.versions.MarkFinal(r.Context(), r.PathValue("content"), r.PathValue("version"))
	if err != nil {
		if errors.Is(err, versions.ErrVersionNotFound) {
			s.writeError(w, http.StatusNotFound, "version not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to finalize version")
		return
	}
	final, err := s.versions.FinalVersion(r.Context(), r.PathValue("content"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load final version")
		return
	}
	s.writeJSON(w, http.StatusOK, final)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
