package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// payrollRepository implements domain.PayrollRepository. Batch employee
// snapshots are embedded as JSON so they stay immutable alongside the batch.
type payrollRepository struct {
	db *DB
}

// NewPayrollRepository creates a new payroll repository.
func NewPayrollRepository(db *DB) domain.PayrollRepository {
	return &payrollRepository{db: db}
}

// batchLineRecord is the persisted form of a snapshot line.
type batchLineRecord struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	PayoutRef  string `json:"payoutRef"`
	Salary     string `json:"salary"`
}

// SaveEmployee upserts an employee row.
func (r *payrollRepository) SaveEmployee(ctx context.Context, employee *domain.Employee) error {
	query := `
		INSERT INTO employees (id, employer, name, payout_ref, salary, payment_day, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			payout_ref = EXCLUDED.payout_ref,
			salary = EXCLUDED.salary,
			payment_day = EXCLUDED.payment_day,
			active = EXCLUDED.active
	`

	_, err := r.db.q(ctx).ExecContext(ctx, query,
		employee.ID,
		employee.Employer,
		employee.Name,
		employee.PayoutRef,
		employee.Salary.String(),
		employee.PaymentDay,
		employee.Active,
		employee.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func scanEmployee(scan func(dest ...any) error) (*domain.Employee, error) {
	var employee domain.Employee
	var salaryStr string

	err := scan(
		&employee.ID,
		&employee.Employer,
		&employee.Name,
		&employee.PayoutRef,
		&salaryStr,
		&employee.PaymentDay,
		&employee.Active,
		&employee.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if employee.Salary, err = decimal.NewFromString(salaryStr); err != nil {
		return nil, fmt.Errorf("failed to parse salary: %w", err)
	}
	return &employee, nil
}

// GetEmployee retrieves one employee of an employer.
func (r *payrollRepository) GetEmployee(ctx context.Context, employer string, id uuid.UUID) (*domain.Employee, error) {
	query := `
		SELECT id, employer, name, payout_ref, salary, payment_day, active, created_at
		FROM employees
		WHERE id = $1 AND employer = $2
	`

	employee, err := scanEmployee(r.db.q(ctx).QueryRowContext(ctx, query, id, employer).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: employee %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

// ListEmployees retrieves the employer's full roster.
func (r *payrollRepository) ListEmployees(ctx context.Context, employer string) ([]*domain.Employee, error) {
	query := `
		SELECT id, employer, name, payout_ref, salary, payment_day, active, created_at
		FROM employees
		WHERE employer = $1
		ORDER BY created_at
	`

	rows, err := r.db.q(ctx).QueryContext(ctx, query, employer)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var roster []*domain.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee row: %w", err)
		}
		roster = append(roster, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employee rows: %w", err)
	}
	return roster, nil
}

// SaveBatch upserts a batch row with its embedded snapshot.
func (r *payrollRepository) SaveBatch(ctx context.Context, batch *domain.PayrollBatch) error {
	records := make([]batchLineRecord, 0, len(batch.Lines))
	for _, line := range batch.Lines {
		records = append(records, batchLineRecord{
			EmployeeID: line.EmployeeID.String(),
			Name:       line.Name,
			PayoutRef:  line.PayoutRef,
			Salary:     line.Salary.String(),
		})
	}
	linesJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal batch lines: %w", err)
	}

	query := `
		INSERT INTO payroll_batches (id, employer, scheduled_at, lines, total_amount, processed, failed, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			processed = EXCLUDED.processed,
			failed = EXCLUDED.failed,
			failure_reason = EXCLUDED.failure_reason
	`

	_, err = r.db.q(ctx).ExecContext(ctx, query,
		batch.ID,
		batch.Employer,
		batch.ScheduledAt,
		linesJSON,
		batch.TotalAmount.String(),
		batch.Processed,
		batch.Failed,
		batch.FailureReason,
		batch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

func scanBatch(scan func(dest ...any) error) (*domain.PayrollBatch, error) {
	var batch domain.PayrollBatch
	var totalStr string
	var linesJSON []byte

	err := scan(
		&batch.ID,
		&batch.Employer,
		&batch.ScheduledAt,
		&linesJSON,
		&totalStr,
		&batch.Processed,
		&batch.Failed,
		&batch.FailureReason,
		&batch.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if batch.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_amount: %w", err)
	}

	var records []batchLineRecord
	if err := json.Unmarshal(linesJSON, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch lines: %w", err)
	}
	for _, record := range records {
		employeeID, err := uuid.Parse(record.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot employee id: %w", err)
		}
		salary, err := decimal.NewFromString(record.Salary)
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot salary: %w", err)
		}
		batch.Lines = append(batch.Lines, domain.BatchLine{
			EmployeeID: employeeID,
			Name:       record.Name,
			PayoutRef:  record.PayoutRef,
			Salary:     salary,
		})
	}
	return &batch, nil
}

const batchColumns = `id, employer, scheduled_at, lines, total_amount, processed, failed, failure_reason, created_at`

// GetBatch retrieves one batch by id.
func (r *payrollRepository) GetBatch(ctx context.Context, id uuid.UUID) (*domain.PayrollBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE id = $1
	`

	batch, err := scanBatch(r.db.q(ctx).QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return batch, nil
}

// ListDueBatches retrieves pending batches scheduled at or before now.
func (r *payrollRepository) ListDueBatches(ctx context.Context, now time.Time) ([]*domain.PayrollBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE NOT processed AND NOT failed AND scheduled_at <= $1
		ORDER BY scheduled_at
	`

	rows, err := r.db.q(ctx).QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due batches: %w", err)
	}
	defer rows.Close()

	var due []*domain.PayrollBatch
	for rows.Next() {
		batch, err := scanBatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		due = append(due, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch rows: %w", err)
	}
	return due, nil
}

// GetPool retrieves the employer's pooled balance.
func (r *payrollRepository) GetPool(ctx context.Context, employer string) (decimal.Decimal, error) {
	query := `SELECT balance FROM payroll_pools WHERE employer = $1`

	var balanceStr string
	err := r.db.q(ctx).QueryRowContext(ctx, query, employer).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: no pool for employer %s", domain.ErrNotFound, employer)
		}
		return decimal.Zero, fmt.Errorf("failed to get pool: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse pool balance: %w", err)
	}
	return balance, nil
}

// SetPool upserts the employer's pooled balance.
func (r *payrollRepository) SetPool(ctx context.Context, employer string, balance decimal.Decimal) error {
	query := `
		INSERT INTO payroll_pools (employer, balance)
		VALUES ($1, $2)
		ON CONFLICT (employer) DO UPDATE SET balance = EXCLUDED.balance
	`

	if _, err := r.db.q(ctx).ExecContext(ctx, query, employer, balance.String()); err != nil {
		return fmt.Errorf("failed to set pool: %w", err)
	}
	return nil
}
