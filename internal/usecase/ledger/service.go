package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
	"github.com/bucketpay/bucketpay-backend/internal/usecase/allocator"
)

// RemainderBucket receives the floor-rounding remainder of every deposit
// split, so total money is exactly conserved.
const RemainderBucket = domain.BucketSpendable

// Service owns per-account bucket balances and the transfer rules between
// them. Every mutating operation runs under the account's lock with
// validate-then-commit discipline.
type Service struct {
	Buckets domain.BucketRepository
	Tx      domain.TxRunner
	Locks   *locks.Keyed

	// OverflowThreshold caps the Billings balance; any excess after a credit
	// is routed to Growth.
	OverflowThreshold decimal.Decimal
}

// NewService creates a new ledger Service instance.
func NewService(buckets domain.BucketRepository, tx domain.TxRunner, keyed *locks.Keyed, overflowThreshold decimal.Decimal) *Service {
	return &Service{
		Buckets:           buckets,
		Tx:                tx,
		Locks:             keyed,
		OverflowThreshold: overflowThreshold,
	}
}

// ApplyDeposit credits a confirmed deposit across the account's buckets
// according to the given split config.
// Logic:
//  1. Validate the amount and the config (rejected wholesale on any fault).
//  2. Load the account's bucket set, creating a zero-balance set on the first
//     deposit, and store the accepted percentages.
//  3. Allocate floor(amount*bp/10000) per enabled bucket; route the rounding
//     remainder to Spendable.
//  4. Run the Billings overflow pass.
//
// Returns the per-bucket credited amounts, remainder included in Spendable.
func (s *Service) ApplyDeposit(ctx context.Context, account string, amount decimal.Decimal, config domain.SplitConfig) (domain.PerBucketAmounts, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: deposit amount must be positive", domain.ErrInvalidAmount)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	allocation, remainder, err := allocator.Allocate(amount, config)
	if err != nil {
		return nil, err
	}
	allocation[RemainderBucket] = allocation[RemainderBucket].Add(remainder)

	s.Locks.Lock(account)
	defer s.Locks.Unlock(account)

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		set, err := s.Buckets.GetSet(ctx, account)
		if errors.Is(err, domain.ErrNotFound) {
			set = domain.NewBucketSet(config)
		} else if err != nil {
			return err
		}
		set.ApplyConfig(config)

		for t, credited := range allocation {
			set[t].Balance = set[t].Balance.Add(credited)
		}
		s.applyBillingsOverflow(set)

		return s.Buckets.SaveSet(ctx, account, set)
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

// Transfer moves funds between two buckets of the same account, or out of the
// ledger entirely when to is the External sentinel.
// Validation order (first failing check wins, no side effects on failure):
// bucket validity, policy table, source balance.
func (s *Service) Transfer(ctx context.Context, account string, from, to domain.BucketType, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: transfer amount must be positive", domain.ErrInvalidAmount)
	}
	if err := checkPolicy(from, to); err != nil {
		return err
	}

	s.Locks.Lock(account)
	defer s.Locks.Unlock(account)

	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		set, err := s.Buckets.GetSet(ctx, account)
		if err != nil {
			return err
		}
		if set[from].Balance.LessThan(amount) {
			return fmt.Errorf("%w: %s holds %s, need %s", domain.ErrInsufficientBalance, from, set[from].Balance, amount)
		}

		// Self-transfer is a legal no-op: validated, no state change.
		if from == to {
			return nil
		}

		set[from].Balance = set[from].Balance.Sub(amount)
		if to != domain.BucketExternal {
			set[to].Balance = set[to].Balance.Add(amount)
			if to == domain.BucketBillings {
				s.applyBillingsOverflow(set)
			}
		}
		return s.Buckets.SaveSet(ctx, account, set)
	})
}

// WithdrawExternal moves funds out of the ledger entirely.
func (s *Service) WithdrawExternal(ctx context.Context, account string, from domain.BucketType, amount decimal.Decimal) error {
	return s.Transfer(ctx, account, from, domain.BucketExternal, amount)
}

// GetBuckets returns a consistent snapshot of the account's bucket set.
func (s *Service) GetBuckets(ctx context.Context, account string) (domain.BucketSet, error) {
	return s.Buckets.GetSet(ctx, account)
}

// applyBillingsOverflow clamps Billings to the overflow threshold and routes
// the excess to Growth. Growth has no cascading rule, so one pass reaches the
// fixed point.
func (s *Service) applyBillingsOverflow(set domain.BucketSet) {
	if s.OverflowThreshold.LessThanOrEqual(decimal.Zero) {
		return
	}
	billings := set[domain.BucketBillings]
	if billings.Balance.GreaterThan(s.OverflowThreshold) {
		excess := billings.Balance.Sub(s.OverflowThreshold)
		billings.Balance = s.OverflowThreshold
		set[domain.BucketGrowth].Balance = set[domain.BucketGrowth].Balance.Add(excess)
	}
}
