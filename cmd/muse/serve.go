package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manthysbr/muse/internal/adapters/duckdb"
	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/services"
	"github.com/manthysbr/muse/pkg/kernel"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, flags)
		},
	}
}

func serve(ctx context.Context, flags *globalFlags) error {
	cfg, logger, err := loadConfig(flags, true)
	if err != nil {
		return err
	}
	logger.Info("starting muse", "version", Version, "addr", cfg.Server.Addr, "production", cfg.Server.Production)

	repo, err := duckdb.NewRepository(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init repository: %w", err)
	}
	defer repo.Close()

	personas, err := domain.BuiltinPersonas()
	if err != nil {
		return fmt.Errorf("failed to load personas: %w", err)
	}

	registry := buildRegistry(cfg, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	eventBus := services.NewEventBus(logger)
	audit := services.NewRoutingAudit(logger, eventBus, repo)
	defer audit.Wait()

	orchestrator := services.NewOrchestrator(logger, registry, services.NewPromptBuilder(personas),
		audit, services.NewRoutingMetrics(reg))
	probe := services.NewBackendProbe(logger, registry)

	apiServer, err := kernel.NewServer(logger, cfg, orchestrator, registry, personas, probe, audit, eventBus, reg, repo)
	if err != nil {
		return fmt.Errorf("failed to init api server: %w", err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Muse-Backend", "X-Request-Id"},
		AllowCredentials: true,
	})

	// SSE is excluded from compression so events are not held in the gzip buffer.
	gzip, err := gzhttp.NewWrapper(gzhttp.ExceptContentTypes([]string{"text/event-stream"}))
	if err != nil {
		return fmt.Errorf("failed to init compression: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           c.Handler(gzip(apiServer.Handler())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
