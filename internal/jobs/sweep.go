// Package jobs runs the recurring background work: the auto-approval sweep.
package jobs

import (
	"context"
	"errors"

	"marketplace-reviews/internal/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler drives the sweep on a cron schedule. SkipIfStillRunning guarantees
// a new tick never overlaps a sweep that is still in flight.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(sweep usecase.SweepService, schedule string, log *zap.Logger) (*Scheduler, error) {
	log = log.With(zap.String("job", "sweep"))

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{log}),
		cron.SkipIfStillRunning(cronLogger{log}),
	))

	_, err := c.AddFunc(schedule, func() {
		result, err := sweep.Run(context.Background())
		if err != nil {
			if errors.Is(err, usecase.ErrSweepRunning) {
				log.Warn("Sweep tick skipped, previous run still active")
				return
			}
			log.Error("Sweep run failed", zap.Error(err))
			return
		}

		log.Info("Scheduled sweep completed",
			zap.Int("processed", result.ProcessedCount),
			zap.Int("failed", result.FailedCount),
		)
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Sweep scheduler started")
}

// Stop halts scheduling and returns once any in-flight sweep has finished.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Sweep scheduler stopped")
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
