package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/syndicate/internal/ai"
	"github.com/haasonsaas/syndicate/internal/channels"
	"github.com/haasonsaas/syndicate/internal/config"
	"github.com/haasonsaas/syndicate/internal/connectors"
	"github.com/haasonsaas/syndicate/internal/connectors/linkedin"
	"github.com/haasonsaas/syndicate/internal/connectors/twitter"
	"github.com/haasonsaas/syndicate/internal/connectors/youtube"
	"github.com/haasonsaas/syndicate/internal/credentials"
	"github.com/haasonsaas/syndicate/internal/observability"
	"github.com/haasonsaas/syndicate/internal/publish"
	"github.com/haasonsaas/syndicate/internal/upload"
	"github.com/haasonsaas/syndicate/internal/versions"
	"github.com/haasonsaas/syndicate/internal/videogen"
	"github.com/haasonsaas/syndicate/internal/web"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	logger.Info("starting syndicate",
		"version", version,
		"addr", cfg.Server.Addr,
		"persistent", cfg.Database.DSN != "")

	// With no DSN every store runs in memory; useful for development and a
	// hard requirement for none of the API surface.
	var (
		credStore    credentials.Store = credentials.NewMemoryStore()
		jobStore     videogen.JobStore = videogen.NewMemoryJobStore()
		versionStore web.VersionStore  = versions.NewMemoryStore()
	)
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		credStore = credentials.NewPostgresStore(db)
		jobStore = videogen.NewPostgresJobStore(db)
		versionStore = versions.NewPostgresStore(db)
	}

	oauthClients := make(map[string]credentials.ClientConfig, len(cfg.OAuth))
	for provider, client := range cfg.OAuth {
		oauthClients[provider] = credentials.ClientConfig{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			TokenURL:     client.TokenURL,
		}
	}
	resolver := credentials.NewResolver(credStore, credentials.NewOAuthRefresher(oauthClients)).
		WithMetrics(metrics)

	var fetcher upload.SourceFetcher = upload.NewHTTPFetcher(&http.Client{Timeout: cfg.Upload.Timeout})
	if cfg.Upload.S3Enabled {
		s3Fetcher, err := upload.NewS3Fetcher(ctx)
		if err != nil {
			return fmt.Errorf("configure s3 source fetcher: %w", err)
		}
		fetcher = &upload.RoutingFetcher{HTTP: fetcher, S3: s3Fetcher}
	}
	uploader := upload.NewClient(upload.Config{
		Timeout: cfg.Upload.Timeout,
		Fetcher: fetcher,
		Metrics: metrics,
		Logger:  logger,
	})

	registry := connectors.NewRegistry()
	registry.Register(twitter.New(twitter.Config{Logger: logger}))
	registry.Register(linkedin.New(linkedin.Config{Logger: logger}))
	registry.Register(youtube.New(youtube.Config{Uploader: uploader, Logger: logger}))

	channelSvc := channels.NewService(channels.NewMemoryStore(), logger)

	orchestrator := publish.NewOrchestrator(publish.Config{
		Registry: registry,
		Resolver: resolver,
		Books:    channelSvc,
		Metrics:  metrics,
		Logger:   logger,
	})

	renders := videogen.NewService(videogen.ServiceConfig{
		Store:    jobStore,
		Resolver: resolver,
		Budget:   videogen.StaticBudget(cfg.Render.BudgetDollars),
		Metrics:  metrics,
		Logger:   logger,
	})

	generator := ai.NewClient(ai.NewSelector(resolver), ai.Config{
		Logger:         logger,
		Metrics:        metrics,
		AnthropicModel: cfg.AI.AnthropicModel,
		GeminiModel:    cfg.AI.GeminiModel,
		OpenAIModel:    cfg.AI.OpenAIModel,
	})

	server := web.NewServer(web.Config{
		Addr:         cfg.Server.Addr,
		Orchestrator: orchestrator,
		Renders:      renders,
		Channels:     channelSvc,
		Generator:    generator,
		Versions:     versionStore,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneLoop(ctx, renders, cfg.Render.Retention, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// pruneLoop drops terminal render jobs older than the retention window.
func pruneLoop(ctx context.Context, renders *videogen.Service, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := renders.Prune(ctx, retention)
			if err != nil {
				logger.Warn("render job prune failed", "error", err)
				continue
			}
			if pruned > 0 {
				logger.Info("pruned render jobs", "count", pruned)
			}
		}
	}
}
