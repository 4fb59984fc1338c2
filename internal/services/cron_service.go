package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 10 * time.Minute

// CronService manages scheduled background jobs
type CronService struct {
	cron         *cron.Cron
	payoutSvc    *PayoutService
	reconcileSvc *ReconciliationService
	payoutSpec   string
	sweepSpec    string
	sweepLimit   int
	logger       *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(payoutSvc *PayoutService, reconcileSvc *ReconciliationService, payoutSpec, sweepSpec string, sweepLimit int, logger *logrus.Logger) *CronService {
	// Seconds precision: "0 30 2 * * *" = 02:30:00 every day
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:         c,
		payoutSvc:    payoutSvc,
		reconcileSvc: reconcileSvc,
		payoutSpec:   payoutSpec,
		sweepSpec:    sweepSpec,
		sweepLimit:   sweepLimit,
		logger:       logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// The payout job runs daily, the engine itself enforces the weekly payout day
	if _, err := s.cron.AddFunc(s.payoutSpec, s.payoutJob); err != nil {
		return fmt.Errorf("failed to schedule payout job: %w", err)
	}
	s.logger.WithField("spec", s.payoutSpec).Info("Scheduled: salon payout run")

	if _, err := s.cron.AddFunc(s.sweepSpec, s.sweepJob); err != nil {
		return fmt.Errorf("failed to schedule reconciliation sweep: %w", err)
	}
	s.logger.WithField("spec", s.sweepSpec).Info("Scheduled: payment reconciliation sweep")

	s.cron.Start()
	s.logger.Info("Cron service started")

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) payoutJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	startTime := time.Now()
	summary, err := s.payoutSvc.RunScheduled(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Payout run failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"skipped":               summary.Skipped,
		"payouts_created":       summary.PayoutsCreated,
		"payouts_auto_approved": summary.PayoutsAutoApproved,
		"errors":                len(summary.Errors),
		"duration_ms":           time.Since(startTime).Milliseconds(),
	}).Info("[CRON] Payout run finished")
}

func (s *CronService) sweepJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.reconcileSvc.Sweep(ctx, s.sweepLimit)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Reconciliation sweep failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"checked":     result.Checked,
		"repaired":    result.Repaired,
		"errors":      len(result.Errors),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("[CRON] Reconciliation sweep finished")
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
