// Package scheduler runs the periodic reporting digest over the
// lending ledger.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appreport "github.com/microlend/backend/internal/application/report"
)

// ReportingScheduler periodically aggregates the reporting and
// invoicing rows for the window since the previous run and logs them
// as an operational digest.
type ReportingScheduler struct {
	reporting *appreport.ReportingService
	logger    *zap.Logger
	interval  time.Duration

	mu      sync.Mutex
	lastRun time.Time

	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewReportingScheduler creates a scheduler running every interval
func NewReportingScheduler(reporting *appreport.ReportingService, logger *zap.Logger, interval time.Duration) *ReportingScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReportingScheduler{
		reporting: reporting,
		logger:    logger.Named("reporting-scheduler"),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the digest loop. The first window opens at start
// time; nothing is reported retroactively.
func (s *ReportingScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					s.logger.Error("reporting digest failed", zap.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("reporting scheduler started", zap.Duration("interval", s.interval))
}

// Stop halts the digest loop and waits for an in-flight run
func (s *ReportingScheduler) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.logger.Info("reporting scheduler stopped")
}

// RunOnce aggregates the window since the previous run and advances it
func (s *ReportingScheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	start := s.lastRun
	end := time.Now()
	s.mu.Unlock()

	row, err := s.reporting.GenerateReporting(ctx, start.Unix(), end.Unix())
	if err != nil {
		return err
	}
	invoicing, err := s.reporting.GenerateInvoicing(ctx, start.Unix(), end.Unix())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastRun = end
	s.mu.Unlock()

	s.logger.Info("reporting digest",
		zap.Int64("period_start", row.PeriodStart),
		zap.Int64("period_end", row.PeriodEnd),
		zap.Int64("offers", row.OffersCount),
		zap.Int64("accepted_offers", row.AcceptedOffersCount),
		zap.Int64("capital_loans", row.TotalCapitalLoans),
		zap.Int64("interest_loans", row.TotalInterestLoans),
		zap.Int64("closed_topups", row.ClosedTopUpsCount),
		zap.Int64("capital_gain", row.TotalCapitalGain),
		zap.Int64("interest_gain", row.TotalInterestGain),
		zap.Int64("invoiced_capital", invoicing.TotalCapital),
		zap.Int64("invoiced_interest", invoicing.TotalInterest),
	)
	return nil
}

// LastRun reports the end of the most recently digested window
func (s *ReportingScheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
