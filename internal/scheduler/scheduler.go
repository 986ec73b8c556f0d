// Package scheduler runs periodic polling of the combined arbitrage pipeline.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-scout/internal/service"
)

// Scheduler manages periodic pipeline runs
type Scheduler struct {
	cron      *cron.Cron
	pipeline  *service.Pipeline
	logger    *logrus.Logger
	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(pipeline *service.Pipeline, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		pipeline: pipeline,
		logger:   logger,
		jobIDs:   make([]cron.EntryID, 0),
	}
}

// SchedulePolling schedules a combined pipeline run for one sport at a fixed
// interval. Each run gets a timeout just under the interval so a slow run
// cannot pile up behind the next one.
func (s *Scheduler) SchedulePolling(intervalSeconds int, sportKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	if intervalSeconds < 5 {
		intervalSeconds = 5
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(intervalSeconds-1)*time.Second)
		defer cancel()

		summary, err := s.pipeline.RunCombinedPipeline(ctx, sportKey)
		if err != nil {
			s.logger.WithError(err).WithField("sport", sportKey).Error("Scheduled pipeline run failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"sport":          sportKey,
			"games":          summary.GamesProcessed,
			"moneyline_arbs": summary.MoneylineOpportunities,
			"prop_arbs":      summary.PropOpportunities,
		}).Debug("Scheduled pipeline run complete")
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"sport":    sportKey,
		"interval": intervalSeconds,
	}).Info("Scheduled pipeline polling job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}
