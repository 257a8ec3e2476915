package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
)

// Payer executes one external disbursement. Implementations may fail per
// payment; the settlement engine turns any such failure into a full batch
// rollback.
type Payer interface {
	Pay(ctx context.Context, line domain.BatchLine) error
}

// LogPayer is the default Payer: disbursement is external to this core, so it
// only records that the payment left the pool.
type LogPayer struct{}

// Pay logs the disbursement.
func (LogPayer) Pay(_ context.Context, line domain.BatchLine) error {
	slog.Info("payroll disbursement", "employee", line.EmployeeID, "payoutRef", line.PayoutRef, "amount", line.Salary)
	return nil
}

// AddEmployeeInput carries the fields for creating or updating an employee.
type AddEmployeeInput struct {
	Name       string
	PayoutRef  string
	Salary     decimal.Decimal
	PaymentDay int
	Active     bool
}

// Service schedules and atomically executes multi-payee disbursement batches
// against an employer's pooled balance.
type Service struct {
	Repo  domain.PayrollRepository
	Tx    domain.TxRunner
	Locks *locks.Keyed
	Payer Payer

	MinSalary decimal.Decimal
	MaxSalary decimal.Decimal
	// ScheduleHorizon bounds how far ahead a batch may be scheduled.
	ScheduleHorizon time.Duration
}

// NewService creates a new payroll Service instance.
func NewService(repo domain.PayrollRepository, tx domain.TxRunner, keyed *locks.Keyed, payer Payer, minSalary, maxSalary decimal.Decimal, horizon time.Duration) *Service {
	return &Service{
		Repo:            repo,
		Tx:              tx,
		Locks:           keyed,
		Payer:           payer,
		MinSalary:       minSalary,
		MaxSalary:       maxSalary,
		ScheduleHorizon: horizon,
	}
}

// AddEmployee adds a validated employee to the employer's roster.
func (s *Service) AddEmployee(ctx context.Context, employer string, input AddEmployeeInput) (*domain.Employee, error) {
	employee := &domain.Employee{
		ID:         uuid.New(),
		Employer:   employer,
		Name:       input.Name,
		PayoutRef:  input.PayoutRef,
		Salary:     input.Salary,
		PaymentDay: input.PaymentDay,
		Active:     input.Active,
		CreatedAt:  time.Now(),
	}
	if err := employee.Validate(s.MinSalary, s.MaxSalary); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveEmployee(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// UpdateEmployee overwrites the mutable fields of an existing employee.
// Invalid input is rejected without touching the roster. Employees are never
// deleted, only deactivated through Active=false.
func (s *Service) UpdateEmployee(ctx context.Context, employer string, id uuid.UUID, input AddEmployeeInput) (*domain.Employee, error) {
	employee, err := s.Repo.GetEmployee(ctx, employer, id)
	if err != nil {
		return nil, err
	}
	updated := *employee
	updated.Name = input.Name
	updated.PayoutRef = input.PayoutRef
	updated.Salary = input.Salary
	updated.PaymentDay = input.PaymentDay
	updated.Active = input.Active
	if err := updated.Validate(s.MinSalary, s.MaxSalary); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveEmployee(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListEmployees returns the employer's full roster.
func (s *Service) ListEmployees(ctx context.Context, employer string) ([]*domain.Employee, error) {
	return s.Repo.ListEmployees(ctx, employer)
}

// FundPool credits the employer's pooled disbursement balance.
func (s *Service) FundPool(ctx context.Context, employer string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: pool deposit must be positive", domain.ErrInvalidAmount)
	}

	s.Locks.Lock(employer)
	defer s.Locks.Unlock(employer)

	balance := decimal.Zero
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Repo.GetPool(ctx, employer)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		balance = current.Add(amount)
		return s.Repo.SetPool(ctx, employer, balance)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// PoolBalance returns the employer's pooled balance.
func (s *Service) PoolBalance(ctx context.Context, employer string) (decimal.Decimal, error) {
	return s.Repo.GetPool(ctx, employer)
}

// Schedule snapshots the currently-active roster into an immutable pending
// batch. Roster changes after this point never affect the batch.
func (s *Service) Schedule(ctx context.Context, employer string, batchDate time.Time) (*domain.PayrollBatch, error) {
	now := time.Now()
	if !batchDate.After(now) {
		return nil, fmt.Errorf("%w: batch date must be in the future", domain.ErrInvalidDate)
	}
	if batchDate.After(now.Add(s.ScheduleHorizon)) {
		return nil, fmt.Errorf("%w: batch date exceeds the %s scheduling horizon", domain.ErrInvalidDate, s.ScheduleHorizon)
	}

	roster, err := s.Repo.ListEmployees(ctx, employer)
	if err != nil {
		return nil, err
	}
	batch := domain.NewPayrollBatch(employer, batchDate, roster, now)
	if len(batch.Lines) == 0 {
		return nil, fmt.Errorf("%w: no active employees to schedule", domain.ErrNotFound)
	}
	if err := s.Repo.SaveBatch(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// GetBatch returns one batch by id.
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*domain.PayrollBatch, error) {
	return s.Repo.GetBatch(ctx, id)
}

// Process settles one batch all-or-nothing. The observed pool delta is either
// exactly -batch.TotalAmount (every payment succeeded) or zero (any failure).
// Logic:
//  1. A terminal batch rejects reprocessing.
//  2. If the pool cannot cover the snapshot total the batch fails with zero
//     deducted and zero employees paid.
//  3. Otherwise the snapshot total is tentatively reserved, every payment is
//     attempted, and the reservation is finalized only when all succeed; a
//     single payment failure releases the reservation and fails the batch.
//
// The employer lock is held for the whole batch so no concurrent debit can
// interleave between the balance check and the final commit.
func (s *Service) Process(ctx context.Context, batchID uuid.UUID) (*domain.PayrollBatch, error) {
	batch, err := s.Repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	s.Locks.Lock(batch.Employer)
	defer s.Locks.Unlock(batch.Employer)

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		// Re-read under the lock; another processor may have settled it.
		batch, err = s.Repo.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Terminal() {
			return fmt.Errorf("%w: batch %s is terminal", domain.ErrAlreadyProcessed, batchID)
		}

		required := batch.TotalAmount
		pool, err := s.Repo.GetPool(ctx, batch.Employer)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if pool.LessThan(required) {
			batch.Failed = true
			batch.FailureReason = fmt.Sprintf("insufficient pooled balance: %s < %s", pool, required)
			return s.Repo.SaveBatch(ctx, batch)
		}

		// Reservation phase: attempt every payment before touching the pool.
		for _, line := range batch.Lines {
			if payErr := s.Payer.Pay(ctx, line); payErr != nil {
				batch.Failed = true
				batch.FailureReason = fmt.Sprintf("payment to %s failed: %v", line.EmployeeID, payErr)
				return s.Repo.SaveBatch(ctx, batch)
			}
		}

		// Finalize: all payments succeeded, debit exactly the snapshot total.
		if err := s.Repo.SetPool(ctx, batch.Employer, pool.Sub(required)); err != nil {
			return err
		}
		batch.Processed = true
		return s.Repo.SaveBatch(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ProcessDue settles every pending batch whose scheduled time has arrived.
// Called by the scheduler; each batch settles independently.
func (s *Service) ProcessDue(ctx context.Context, now time.Time) error {
	due, err := s.Repo.ListDueBatches(ctx, now)
	if err != nil {
		return err
	}
	for _, batch := range due {
		if _, err := s.Process(ctx, batch.ID); err != nil {
			slog.Warn("due batch processing failed", "batch", batch.ID, "err", err)
		}
	}
	return nil
}
