package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/config"
	"github.com/aristath/crapto/internal/scheduler"
	"github.com/aristath/crapto/internal/server"
)

// Wire initializes all dependencies and returns a fully configured container
// Order of operations:
// 1. Initialize registry and image stores
// 2. Initialize services
// 3. Register jobs
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container := &Container{
		Scheduler: scheduler.New(log),
	}

	// Step 1: Initialize stores
	if err := InitializeStores(ctx, container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize stores: %w", err)
	}

	// Step 2: Initialize services
	if err := InitializeServices(container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 3: Register jobs
	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, jobs, nil
}

// NewServer builds the HTTP server over a wired container
func NewServer(container *Container, cfg *config.Config, log zerolog.Logger) *server.Server {
	uploadsDir := ""
	if cfg.Images.Backend == config.ImageBackendDisk {
		uploadsDir = cfg.Images.UploadsDir
	}

	return server.New(server.Config{
		Log:        log,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		Version:    cfg.Version,
		UploadsDir: uploadsDir,
		Bus:        container.EventBus,
		Market:     container.State,
		Handlers:   Handlers(container, log),
	})
}
