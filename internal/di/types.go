// Package di provides dependency injection wiring and initialization.
package di

import (
	"golang.org/x/time/rate"

	"github.com/aristath/crapto/internal/database"
	"github.com/aristath/crapto/internal/events"
	"github.com/aristath/crapto/internal/modules/registry"
	"github.com/aristath/crapto/internal/scheduler"
	"github.com/aristath/crapto/internal/services"
	"github.com/aristath/crapto/internal/uploads"
)

// Container holds all dependencies for the application.
// It is created by Wire and is the single source of truth for service instances.
type Container struct {
	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Trading core
	State   *services.AppState
	Session *services.SessionService

	// Create-token registry. RegistryDB is nil unless the sqlite backend is configured.
	RegistryDB      *database.DB
	RegistryStore   registry.Store
	ImageStore      uploads.ImageStore
	RegistryService *registry.Service
	CreateLimiter   *rate.Limiter

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered maintenance jobs
type JobInstances struct {
	SweepNotifications    scheduler.Job
	CheckRegistryDatabase scheduler.Job
	ReportMarketStatus    scheduler.Job
}

// Close releases resources held by the container
func (c *Container) Close() error {
	if c.RegistryDB != nil {
		return c.RegistryDB.Close()
	}
	return nil
}
