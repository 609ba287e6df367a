// Package main is the entry point for the Crapto launchpad server.
// It serves the mock trading core and the create-token registry over HTTP
// and runs the maintenance jobs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/crapto/internal/config"
	"github.com/aristath/crapto/internal/di"
	"github.com/aristath/crapto/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// main loads configuration, wires dependencies, then runs the HTTP server and the
// scheduler until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		File:   cfg.LogFile,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("version", cfg.Version).
		Str("data_dir", cfg.DataDir).
		Msg("Starting Crapto")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close registry database")
		}
	}()

	// Verify the registry database before serving; corruption is not recoverable at runtime
	if err := container.Scheduler.RunNow(jobs.CheckRegistryDatabase.Name()); err != nil {
		log.Fatal().Err(err).Msg("Registry database check failed")
	}

	srv := di.NewServer(container, cfg, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	container.Scheduler.Start()

	g.Go(func() error {
		// Wait for a signal or a server failure
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		container.Scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}

	log.Info().Msg("Server stopped")
}
