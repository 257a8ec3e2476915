package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// goalRepository implements domain.GoalRepository.
type goalRepository struct {
	db *DB
}

// NewGoalRepository creates a new goal repository.
func NewGoalRepository(db *DB) domain.GoalRepository {
	return &goalRepository{db: db}
}

const goalColumns = `id, account, target_amount, current_amount, target_date, description, completed, locked, bonus_basis_points, created_at`

func scanGoal(scan func(dest ...any) error) (*domain.SavingsGoal, error) {
	var goal domain.SavingsGoal
	var targetStr, currentStr string

	err := scan(
		&goal.ID,
		&goal.Account,
		&targetStr,
		&currentStr,
		&goal.TargetDate,
		&goal.Description,
		&goal.Completed,
		&goal.Locked,
		&goal.BonusBasisPoints,
		&goal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if goal.TargetAmount, err = decimal.NewFromString(targetStr); err != nil {
		return nil, fmt.Errorf("failed to parse target_amount: %w", err)
	}
	if goal.CurrentAmount, err = decimal.NewFromString(currentStr); err != nil {
		return nil, fmt.Errorf("failed to parse current_amount: %w", err)
	}
	return &goal, nil
}

// Create inserts a new goal row.
func (r *goalRepository) Create(ctx context.Context, goal *domain.SavingsGoal) error {
	query := `
		INSERT INTO savings_goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.q(ctx).ExecContext(ctx, query,
		goal.ID,
		goal.Account,
		goal.TargetAmount.String(),
		goal.CurrentAmount.String(),
		goal.TargetDate,
		goal.Description,
		goal.Completed,
		goal.Locked,
		goal.BonusBasisPoints,
		goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// GetByID retrieves a goal owned by the account.
func (r *goalRepository) GetByID(ctx context.Context, account string, id uuid.UUID) (*domain.SavingsGoal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM savings_goals
		WHERE id = $1 AND account = $2
	`

	goal, err := scanGoal(r.db.q(ctx).QueryRowContext(ctx, query, id, account).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: goal %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get goal by ID: %w", err)
	}
	return goal, nil
}

// Update overwrites the mutable fields of a goal.
func (r *goalRepository) Update(ctx context.Context, goal *domain.SavingsGoal) error {
	query := `
		UPDATE savings_goals
		SET current_amount = $1, completed = $2, locked = $3, bonus_basis_points = $4
		WHERE id = $5
	`

	res, err := r.db.q(ctx).ExecContext(ctx, query,
		goal.CurrentAmount.String(),
		goal.Completed,
		goal.Locked,
		goal.BonusBasisPoints,
		goal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: goal %s", domain.ErrNotFound, goal.ID)
	}
	return nil
}

// ListByAccount retrieves all goals of an account.
func (r *goalRepository) ListByAccount(ctx context.Context, account string) ([]*domain.SavingsGoal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM savings_goals
		WHERE account = $1
		ORDER BY created_at
	`

	rows, err := r.db.q(ctx).QueryContext(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []*domain.SavingsGoal
	for rows.Next() {
		goal, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal row: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read goal rows: %w", err)
	}
	return goals, nil
}
