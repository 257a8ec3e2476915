package dashboard

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// Summary is the read-only account overview: spendable bucket balances, goal
// reservations and yield holdings valued at current redemption values.
type Summary struct {
	Account       string
	Buckets       map[domain.BucketType]BucketView
	BucketTotal   decimal.Decimal
	GoalsLocked   decimal.Decimal
	YieldValue    decimal.Decimal
	YieldEarned   decimal.Decimal
	NetWorth      decimal.Decimal
	OpenGoals     int
	ReleasedGoals int
}

// BucketView is one bucket's externally visible state.
type BucketView struct {
	Balance      decimal.Decimal
	Percentage   int64
	Enabled      bool
	YieldBalance decimal.Decimal
	IsYielding   bool
}

// Service aggregates a consistent snapshot of an account across the ledger,
// goal and yield stores. Queries never mutate state.
type Service struct {
	Buckets domain.BucketRepository
	Goals   domain.GoalRepository
	Yield   domain.YieldRepository
}

// NewService creates a new dashboard Service instance.
func NewService(buckets domain.BucketRepository, goals domain.GoalRepository, yield domain.YieldRepository) *Service {
	return &Service{Buckets: buckets, Goals: goals, Yield: yield}
}

// Summarize builds the account overview.
func (s *Service) Summarize(ctx context.Context, account string) (*Summary, error) {
	summary := &Summary{
		Account:     account,
		Buckets:     make(map[domain.BucketType]BucketView, len(domain.BucketTypes)),
		BucketTotal: decimal.Zero,
		GoalsLocked: decimal.Zero,
		YieldValue:  decimal.Zero,
		YieldEarned: decimal.Zero,
	}

	set, err := s.Buckets.GetSet(ctx, account)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	for _, t := range domain.BucketTypes {
		b, ok := set[t]
		if !ok {
			summary.Buckets[t] = BucketView{Balance: decimal.Zero, YieldBalance: decimal.Zero}
			continue
		}
		summary.Buckets[t] = BucketView{
			Balance:      b.Balance,
			Percentage:   b.Percentage,
			Enabled:      b.Enabled,
			YieldBalance: b.YieldBalance,
			IsYielding:   b.IsYielding,
		}
		summary.BucketTotal = summary.BucketTotal.Add(b.Balance)
	}

	goals, err := s.Goals.ListByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		summary.GoalsLocked = summary.GoalsLocked.Add(g.CurrentAmount)
		if g.Locked {
			summary.OpenGoals++
		} else {
			summary.ReleasedGoals++
		}
	}

	holdings, err := s.Yield.ListHoldings(ctx, account)
	if err != nil {
		return nil, err
	}
	for _, h := range holdings {
		token, err := s.Yield.GetToken(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}
		summary.YieldValue = summary.YieldValue.Add(h.CurrentValue(token.RedemptionValue))
		summary.YieldEarned = summary.YieldEarned.Add(h.YieldEarned(token.RedemptionValue))
	}

	summary.NetWorth = summary.BucketTotal.Add(summary.GoalsLocked).Add(summary.YieldValue)
	return summary, nil
}
