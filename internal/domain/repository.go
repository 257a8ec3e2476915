package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxRunner scopes a validate-then-commit sequence to one atomic transaction.
// If fn returns an error nothing written inside it survives.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BucketRepository persists one ledger row per (account, bucket type).
type BucketRepository interface {
	// GetSet retrieves the full bucket set for an account.
	// Returns ErrNotFound if the account has no ledger yet.
	GetSet(ctx context.Context, account string) (BucketSet, error)

	// SaveSet writes the full bucket set for an account, creating rows as
	// needed.
	SaveSet(ctx context.Context, account string, set BucketSet) error
}

// GoalRepository persists savings goals.
type GoalRepository interface {
	Create(ctx context.Context, goal *SavingsGoal) error
	GetByID(ctx context.Context, account string, id uuid.UUID) (*SavingsGoal, error)
	Update(ctx context.Context, goal *SavingsGoal) error
	ListByAccount(ctx context.Context, account string) ([]*SavingsGoal, error)
}

// PayrollRepository persists the employer roster, batches and the pooled
// disbursement balance.
type PayrollRepository interface {
	SaveEmployee(ctx context.Context, employee *Employee) error
	GetEmployee(ctx context.Context, employer string, id uuid.UUID) (*Employee, error)
	ListEmployees(ctx context.Context, employer string) ([]*Employee, error)

	SaveBatch(ctx context.Context, batch *PayrollBatch) error
	GetBatch(ctx context.Context, id uuid.UUID) (*PayrollBatch, error)
	// ListDueBatches returns pending batches whose scheduled time is not
	// after now.
	ListDueBatches(ctx context.Context, now time.Time) ([]*PayrollBatch, error)

	GetPool(ctx context.Context, employer string) (decimal.Decimal, error)
	SetPool(ctx context.Context, employer string, balance decimal.Decimal) error
}

// YieldRepository persists token redemption values and per-account holdings.
type YieldRepository interface {
	GetToken(ctx context.Context, symbol TokenSymbol) (*YieldToken, error)
	SaveToken(ctx context.Context, token *YieldToken) error
	ListTokens(ctx context.Context) ([]*YieldToken, error)

	GetHolding(ctx context.Context, account string, symbol TokenSymbol) (*Holding, error)
	SaveHolding(ctx context.Context, holding *Holding) error
	ListHoldings(ctx context.Context, account string) ([]*Holding, error)
}
