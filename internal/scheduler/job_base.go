package scheduler

import "github.com/rs/zerolog"

// JobBase holds the logger shared by every job. Jobs embed it.
type JobBase struct {
	log zerolog.Logger
}

// SetLogger sets the logger for the job
func (j *JobBase) SetLogger(log zerolog.Logger) {
	j.log = log
}
