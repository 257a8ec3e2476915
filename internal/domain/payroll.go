package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee is one member of an employer's payroll roster. Employees are never
// deleted, only deactivated.
type Employee struct {
	ID         uuid.UUID
	Employer   string
	Name       string
	PayoutRef  string // external payout address or account reference
	Salary     decimal.Decimal
	PaymentDay int // day of month, 1..31
	Active     bool
	CreatedAt  time.Time
}

// Validate ensures the employee adheres to domain rules given the deployment's
// salary bounds.
func (e *Employee) Validate(minSalary, maxSalary decimal.Decimal) error {
	if e.Name == "" {
		return fmt.Errorf("%w: employee name is required", ErrInvalidAmount)
	}
	if e.PayoutRef == "" {
		return fmt.Errorf("%w: employee payout reference is required", ErrInvalidAmount)
	}
	if e.Salary.LessThan(minSalary) || e.Salary.GreaterThan(maxSalary) {
		return fmt.Errorf("%w: salary %s outside [%s, %s]", ErrInvalidAmount, e.Salary, minSalary, maxSalary)
	}
	if e.PaymentDay < 1 || e.PaymentDay > 31 {
		return fmt.Errorf("%w: payment day %d outside [1, 31]", ErrInvalidAmount, e.PaymentDay)
	}
	return nil
}

// BatchLine is one employee/salary pair frozen into a payroll batch at
// scheduling time. Roster changes after scheduling never touch it.
type BatchLine struct {
	EmployeeID uuid.UUID
	Name       string
	PayoutRef  string
	Salary     decimal.Decimal
}

// PayrollBatch is an immutable snapshot of the active roster, created at
// scheduling time. It transitions exactly once, from pending to processed or
// failed, and is terminal thereafter.
type PayrollBatch struct {
	ID            uuid.UUID
	Employer      string
	ScheduledAt   time.Time
	Lines         []BatchLine
	TotalAmount   decimal.Decimal
	Processed     bool
	Failed        bool
	FailureReason string
	CreatedAt     time.Time
}

// NewPayrollBatch snapshots the active employees of a roster into a pending
// batch.
func NewPayrollBatch(employer string, scheduledAt time.Time, roster []*Employee, now time.Time) *PayrollBatch {
	batch := &PayrollBatch{
		ID:          uuid.New(),
		Employer:    employer,
		ScheduledAt: scheduledAt,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
	}
	for _, e := range roster {
		if !e.Active {
			continue
		}
		batch.Lines = append(batch.Lines, BatchLine{
			EmployeeID: e.ID,
			Name:       e.Name,
			PayoutRef:  e.PayoutRef,
			Salary:     e.Salary,
		})
		batch.TotalAmount = batch.TotalAmount.Add(e.Salary)
	}
	return batch
}

// Terminal reports whether the batch has already reached a final state.
func (b *PayrollBatch) Terminal() bool {
	return b.Processed || b.Failed
}
