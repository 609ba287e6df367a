package scheduler

import "github.com/rs/zerolog"

// NotificationSweeper clears notifications past their expiry
type NotificationSweeper interface {
	SweepNotifications() bool
}

// SweepNotificationsJob clears expired notifications the expiry timer missed
type SweepNotificationsJob struct {
	JobBase
	sweeper NotificationSweeper
}

// NewSweepNotificationsJob creates a new SweepNotificationsJob
func NewSweepNotificationsJob(sweeper NotificationSweeper) *SweepNotificationsJob {
	return &SweepNotificationsJob{
		JobBase: JobBase{log: zerolog.Nop()},
		sweeper: sweeper,
	}
}

// Name returns the job name
func (j *SweepNotificationsJob) Name() string {
	return "sweep_notifications"
}

// Run executes the sweep
func (j *SweepNotificationsJob) Run() error {
	if j.sweeper.SweepNotifications() {
		j.log.Debug().Msg("Cleared expired notification")
	}
	return nil
}
