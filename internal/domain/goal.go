package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompletionBonusBasisPoints is the yield uplift granted when a goal reaches
// its target: 100 bp = 1%.
const CompletionBonusBasisPoints int64 = 100

// SavingsGoal is a withdrawal-locked sub-account of the Savings bucket.
// Contributions move funds out of the visible Savings balance into
// CurrentAmount; the funds are categorically inaccessible until the goal
// completes.
//
// Lifecycle: Open (locked, not completed) -> Completed (locked, completed,
// bonus set) -> Released (unlocked, after one successful withdrawal).
type SavingsGoal struct {
	ID               uuid.UUID
	Account          string
	TargetAmount     decimal.Decimal
	CurrentAmount    decimal.Decimal
	TargetDate       time.Time
	Description      string
	Completed        bool
	Locked           bool
	BonusBasisPoints int64
	CreatedAt        time.Time
}

// NewSavingsGoal creates a goal in the Open state.
func NewSavingsGoal(account string, target decimal.Decimal, targetDate time.Time, description string, now time.Time) (*SavingsGoal, error) {
	if target.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: goal target must be positive", ErrInvalidAmount)
	}
	if !targetDate.After(now) {
		return nil, fmt.Errorf("%w: goal target date must be in the future", ErrInvalidDate)
	}
	return &SavingsGoal{
		ID:            uuid.New(),
		Account:       account,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		TargetDate:    targetDate,
		Description:   description,
		Completed:     false,
		Locked:        true,
		CreatedAt:     now,
	}, nil
}

// Payout returns the amount released on withdrawal: the contributed amount
// plus floor(current * bonus / 10000).
func (g *SavingsGoal) Payout() decimal.Decimal {
	bonus := g.CurrentAmount.
		Mul(decimal.NewFromInt(g.BonusBasisPoints)).
		Div(decimal.NewFromInt(BasisPointsTotal)).
		Floor()
	return g.CurrentAmount.Add(bonus)
}
