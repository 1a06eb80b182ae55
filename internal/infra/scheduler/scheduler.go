package scheduler

import (
	"context"
	"time"

	"homework_status_bot/internal/app" // For CycleResult

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner runs one poll cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) app.CycleResult
}

// PollScheduler runs poll cycles one after another, waiting for the next
// activation of the schedule after each cycle finishes.
type PollScheduler struct {
	runner   CycleRunner
	schedule cron.Schedule
	logger   *logrus.Entry
	now      func() time.Time
}

func NewPollScheduler(runner CycleRunner, schedule cron.Schedule, logger *logrus.Entry) *PollScheduler {
	return &PollScheduler{
		runner:   runner,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled. The first cycle runs immediately.
func (s *PollScheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting poll scheduler...")
	for {
		res := s.runner.RunCycle(ctx)
		s.logger.WithFields(logrus.Fields{
			"from_date":       res.FromDate,
			"next_checkpoint": res.NextCheckpoint,
			"failed":          res.Err != nil,
		}).Debug("Poll cycle finished")

		if err := ctx.Err(); err != nil {
			s.logger.Info("Poll scheduler stopped.")
			return err
		}

		next := s.schedule.Next(s.now())
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		s.logger.Debugf("Next poll at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Poll scheduler stopped.")
			return ctx.Err()
		case <-timer.C:
		}
	}
}
