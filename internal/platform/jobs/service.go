package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/bucketpay/bucketpay-backend/internal/usecase/payroll"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/yield"
)

// Service drives the two time-driven operations of the core: settling due
// payroll batches and accruing yield. Both are idempotent recomputations, so
// a missed or doubled tick is harmless.
type Service struct {
	Payroll *payroll.Service
	Yield   *yield.Service

	PayrollInterval time.Duration
	AccrualInterval time.Duration
}

// New creates a new jobs Service.
func New(payrollSvc *payroll.Service, yieldSvc *yield.Service, payrollInterval, accrualInterval time.Duration) *Service {
	return &Service{
		Payroll:         payrollSvc,
		Yield:           yieldSvc,
		PayrollInterval: payrollInterval,
		AccrualInterval: accrualInterval,
	}
}

// Start launches the schedulers; they stop when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	if s.PayrollInterval > 0 {
		go s.schedulePayroll(ctx, s.PayrollInterval)
	}
	if s.AccrualInterval > 0 {
		go s.scheduleAccrual(ctx, s.AccrualInterval)
	}
}

func (s *Service) schedulePayroll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Payroll.ProcessDue(ctx, time.Now()); err != nil {
				slog.Warn("payroll scheduler run failed", "err", err)
			}
		}
	}
}

func (s *Service) scheduleAccrual(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Yield.Accrue(ctx, time.Now()); err != nil {
				slog.Warn("yield accrual run failed", "err", err)
			}
		}
	}
}
