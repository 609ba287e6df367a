package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/config"
	"github.com/aristath/crapto/internal/scheduler"
)

// RegisterJobs creates the maintenance jobs and adds them to the container scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sweep := scheduler.NewSweepNotificationsJob(container.Session)
	sweep.SetLogger(log.With().Str("job", "sweep_notifications").Logger())

	checkRegistry := scheduler.NewCheckRegistryDatabaseJob(container.RegistryDB)
	checkRegistry.SetLogger(log.With().Str("job", "check_registry_database").Logger())

	report := scheduler.NewReportMarketStatusJob(container.State, container.RegistryService)
	report.SetLogger(log.With().Str("job", "report_market_status").Logger())

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Jobs.MaintenanceSchedule, sweep},
		{cfg.Jobs.MaintenanceSchedule, checkRegistry},
		{cfg.Jobs.StatusSchedule, report},
	}
	for _, reg := range registrations {
		if err := container.Scheduler.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", reg.job.Name(), err)
		}
	}

	return &JobInstances{
		SweepNotifications:    sweep,
		CheckRegistryDatabase: checkRegistry,
		ReportMarketStatus:    report,
	}, nil
}
