package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/epilog-dev/epilog/internal/config"
	"github.com/epilog-dev/epilog/internal/diagnose"
	"github.com/epilog-dev/epilog/internal/oracle"
	"github.com/epilog-dev/epilog/internal/patch"
	"github.com/epilog-dev/epilog/internal/policy"
	"github.com/epilog-dev/epilog/internal/service"
	"github.com/epilog-dev/epilog/internal/store"
	transport "github.com/epilog-dev/epilog/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Logging
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("database", cfg.DatabaseURL).
		Msg("starting epilog trace service")

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	// Initialize the diagnosis oracle. Without a credential the service
	// runs ingestion-only and diagnosis requests report misconfiguration.
	var engine *diagnose.Engine
	provider := oracle.NewProvider(cfg.GoogleAPIKey, cfg.DiagnosisModel, cfg.PatchModel, cfg.OracleTimeout)
	if provider != nil {
		engine = diagnose.NewEngine(db, provider, cfg.ProjectPath, cfg.WindowSize)
	} else {
		log.Warn().Msg("no oracle credential configured, diagnosis disabled")
	}

	// Initialize patch policy engine
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	// Initialize service and HTTP server
	svc := service.New(db, engine, patch.NewApplier(), policyEngine, cfg)
	server := transport.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	log.Info().Int("port", cfg.HTTPPort).Msg("trace API started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
	}

	log.Info().Msg("stopped")
}
