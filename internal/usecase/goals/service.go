package goals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
)

// Service manages withdrawal-locked savings goals. Contributions reserve an
// already-debited portion of the Savings bucket; the funds are inaccessible
// until the goal completes.
type Service struct {
	Goals   domain.GoalRepository
	Buckets domain.BucketRepository
	Tx      domain.TxRunner
	Locks   *locks.Keyed
}

// NewService creates a new goals Service instance.
func NewService(goals domain.GoalRepository, buckets domain.BucketRepository, tx domain.TxRunner, keyed *locks.Keyed) *Service {
	return &Service{Goals: goals, Buckets: buckets, Tx: tx, Locks: keyed}
}

// CreateGoal opens a new locked goal. It does not yet reserve any Savings
// balance.
func (s *Service) CreateGoal(ctx context.Context, account string, target decimal.Decimal, targetDate time.Time, description string) (*domain.SavingsGoal, error) {
	goal, err := domain.NewSavingsGoal(account, target, targetDate, description, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.Goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Contribute debits the account's Savings balance into the goal's locked
// sub-balance. If the contribution reaches the target the goal completes in
// the same atomic step, retaining any overshoot and earning the completion
// bonus.
func (s *Service) Contribute(ctx context.Context, account string, goalID uuid.UUID, amount decimal.Decimal) (*domain.SavingsGoal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: contribution must be positive", domain.ErrInvalidAmount)
	}

	s.Locks.Lock(account)
	defer s.Locks.Unlock(account)

	var goal *domain.SavingsGoal
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		goal, err = s.Goals.GetByID(ctx, account, goalID)
		if err != nil {
			return err
		}
		if goal.Completed {
			return fmt.Errorf("%w: goal %s", domain.ErrAlreadyCompleted, goalID)
		}
		if !goal.Locked {
			return fmt.Errorf("%w: goal %s is already released", domain.ErrNotCompleted, goalID)
		}

		set, err := s.Buckets.GetSet(ctx, account)
		if err != nil {
			return err
		}
		savings := set[domain.BucketSavings]
		if savings.Balance.LessThan(amount) {
			return fmt.Errorf("%w: savings holds %s, need %s", domain.ErrInsufficientBalance, savings.Balance, amount)
		}

		savings.Balance = savings.Balance.Sub(amount)
		goal.CurrentAmount = goal.CurrentAmount.Add(amount)
		if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
			goal.Completed = true
			goal.BonusBasisPoints = domain.CompletionBonusBasisPoints
		}

		if err := s.Buckets.SaveSet(ctx, account, set); err != nil {
			return err
		}
		return s.Goals.Update(ctx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// Withdraw releases a completed goal: the contributed amount plus the bonus
// uplift is credited back to the Savings bucket and the goal transitions to
// Released. A released goal cannot be withdrawn again.
func (s *Service) Withdraw(ctx context.Context, account string, goalID uuid.UUID) (decimal.Decimal, error) {
	s.Locks.Lock(account)
	defer s.Locks.Unlock(account)

	payout := decimal.Zero
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		goal, err := s.Goals.GetByID(ctx, account, goalID)
		if err != nil {
			return err
		}
		if !goal.Completed || !goal.Locked {
			return fmt.Errorf("%w: goal %s has no locked payout", domain.ErrNotCompleted, goalID)
		}

		set, err := s.Buckets.GetSet(ctx, account)
		if err != nil {
			return err
		}

		payout = goal.Payout()
		set[domain.BucketSavings].Balance = set[domain.BucketSavings].Balance.Add(payout)
		goal.CurrentAmount = decimal.Zero
		goal.Locked = false

		if err := s.Buckets.SaveSet(ctx, account, set); err != nil {
			return err
		}
		return s.Goals.Update(ctx, goal)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return payout, nil
}

// ListGoals returns all goals of an account.
func (s *Service) ListGoals(ctx context.Context, account string) ([]*domain.SavingsGoal, error) {
	return s.Goals.ListByAccount(ctx, account)
}
