package recalculation

import (
	"context"

	"github.com/robfig/cron/v3"

	"opatam/pkg/logger"
)

// Scheduler triggers Job.Run on a cron expression. Overlapping runs are
// skipped.
type Scheduler struct {
	job  *Job
	spec string
	log  *logger.Logger
}

func NewScheduler(job *Job, spec string, log *logger.Logger) *Scheduler {
	return &Scheduler{job: job, spec: spec, log: log}
}

// Start runs the schedule until ctx is cancelled and waits for a running batch
// to finish before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{s.log}),
		cron.SkipIfStillRunning(cronLogger{s.log}),
	))

	_, err := c.AddFunc(s.spec, func() {
		if _, err := s.job.Run(ctx); err != nil {
			s.log.Error("Scheduled recalculation failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.log.Info("Recalculation scheduled", "cron", s.spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// cronLogger adapts the logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
