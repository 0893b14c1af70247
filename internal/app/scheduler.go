/**
 * @description
 * Cron scheduler setup for the sweep jobs.
 */

package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/tperrut/gestao-igrejas2-sub000/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.ReservationExpirySchedule, s.jobs.ExpireReservations); err != nil {
		s.logger.Error("failed to schedule reservation expiry sweep", "error", err)
	} else {
		s.logger.Info("scheduled reservation expiry sweep", "schedule", s.config.ReservationExpirySchedule)
	}

	if _, err := s.cron.AddFunc(s.config.OverdueSweepSchedule, s.jobs.MarkOverdueLoans); err != nil {
		s.logger.Error("failed to schedule overdue sweep", "error", err)
	} else {
		s.logger.Info("scheduled overdue sweep", "schedule", s.config.OverdueSweepSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
