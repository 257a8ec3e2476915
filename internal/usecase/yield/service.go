package yield

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
)

// secondsPerYear is the accrual denominator (365-day year).
const secondsPerYear = 365 * 24 * 60 * 60

// Service tracks monotonically increasing redemption values for the synthetic
// yield tokens and converts bucket balances into and out of them.
type Service struct {
	Repo    domain.YieldRepository
	Buckets domain.BucketRepository
	Tx      domain.TxRunner
	Locks   *locks.Keyed
}

// NewService creates a new yield Service instance.
func NewService(repo domain.YieldRepository, buckets domain.BucketRepository, tx domain.TxRunner, keyed *locks.Keyed) *Service {
	return &Service{Repo: repo, Buckets: buckets, Tx: tx, Locks: keyed}
}

// Convert wraps part of a bucket balance into a yield token at the current
// redemption value. The base amount leaves the bucket's spendable balance in
// the same atomic step and is tracked as the bucket's wrapped book value.
func (s *Service) Convert(ctx context.Context, account string, bucket domain.BucketType, baseAmount decimal.Decimal, symbol domain.TokenSymbol) (*domain.Holding, error) {
	if baseAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: conversion amount must be positive", domain.ErrInvalidAmount)
	}
	if !bucket.IsStored() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidBucket, bucket)
	}

	s.Locks.Lock(account)
	defer s.Locks.Unlock(account)

	var holding *domain.Holding
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.Repo.GetToken(ctx, symbol)
		if err != nil {
			return err
		}
		set, err := s.Buckets.GetSet(ctx, account)
		if err != nil {
			return err
		}
		source := set[bucket]
		if source.Balance.LessThan(baseAmount) {
			return fmt.Errorf("%w: %s holds %s, need %s", domain.ErrInsufficientBalance, bucket, source.Balance, baseAmount)
		}

		holding, err = s.Repo.GetHolding(ctx, account, symbol)
		if errors.Is(err, domain.ErrNotFound) {
			holding = &domain.Holding{
				Account:            account,
				Symbol:             symbol,
				TokenAmount:        decimal.Zero,
				OriginalBaseAmount: decimal.Zero,
			}
		} else if err != nil {
			return err
		}

		tokenAmount := baseAmount.Div(token.RedemptionValue)
		source.Balance = source.Balance.Sub(baseAmount)
		source.YieldBalance = source.YieldBalance.Add(baseAmount)
		source.IsYielding = true
		holding.TokenAmount = holding.TokenAmount.Add(tokenAmount)
		holding.OriginalBaseAmount = holding.OriginalBaseAmount.Add(baseAmount)

		if err := s.Buckets.SaveSet(ctx, account, set); err != nil {
			return err
		}
		return s.Repo.SaveHolding(ctx, holding)
	})
	if err != nil {
		return nil, err
	}
	return holding, nil
}

// Redeem unwraps token units back into a bucket balance at the current
// redemption value, flooring the credit to whole base units.
func (s *Service) Redeem(ctx context.Context, account string, bucket domain.BucketType, tokenAmount decimal.Decimal, symbol domain.TokenSymbol) (decimal.Decimal, error) {
	if tokenAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: redemption amount must be positive", domain.ErrInvalidAmount)
	}
	if !bucket.IsStored() {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidBucket, bucket)
	}

	s.Locks.Lock(account)
	defer s.Locks.Unlock(account)

	baseAmount := decimal.Zero
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		token, err := s.Repo.GetToken(ctx, symbol)
		if err != nil {
			return err
		}
		holding, err := s.Repo.GetHolding(ctx, account, symbol)
		if err != nil {
			return err
		}
		if holding.TokenAmount.LessThan(tokenAmount) {
			return fmt.Errorf("%w: holding %s tokens, need %s", domain.ErrInsufficientBalance, holding.TokenAmount, tokenAmount)
		}
		set, err := s.Buckets.GetSet(ctx, account)
		if err != nil {
			return err
		}

		baseAmount = tokenAmount.Mul(token.RedemptionValue).Floor()
		target := set[bucket]
		target.Balance = target.Balance.Add(baseAmount)
		// Unwind the wrapped book value, flooring at zero once yield gains
		// push the redemption above the originally wrapped amount.
		target.YieldBalance = decimal.Max(decimal.Zero, target.YieldBalance.Sub(baseAmount))
		target.IsYielding = target.YieldBalance.GreaterThan(decimal.Zero)

		holding.TokenAmount = holding.TokenAmount.Sub(tokenAmount)
		redeemedShare := decimal.Min(holding.OriginalBaseAmount, baseAmount)
		holding.OriginalBaseAmount = holding.OriginalBaseAmount.Sub(redeemedShare)

		if err := s.Buckets.SaveSet(ctx, account, set); err != nil {
			return err
		}
		return s.Repo.SaveHolding(ctx, holding)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return baseAmount, nil
}

// Accrue advances every token's redemption value by simple proportional
// accrual for the time elapsed since its last accrual:
//
//	delta = redemptionValue * apy * elapsedSeconds / secondsPerYear
//
// Redemption values never decrease; non-positive elapsed time is a no-op, so
// the recomputation is idempotent under clock skew.
func (s *Service) Accrue(ctx context.Context, now time.Time) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		tokens, err := s.Repo.ListTokens(ctx)
		if err != nil {
			return err
		}
		for _, token := range tokens {
			elapsed := now.Sub(token.LastAccruedAt).Seconds()
			if elapsed <= 0 {
				continue
			}
			delta := token.RedemptionValue.
				Mul(token.APY).
				Mul(decimal.NewFromFloat(elapsed)).
				Div(decimal.NewFromInt(secondsPerYear))
			token.RedemptionValue = token.RedemptionValue.Add(delta)
			token.LastAccruedAt = now
			if err := s.Repo.SaveToken(ctx, token); err != nil {
				return err
			}
		}
		return nil
	})
}

// Holdings returns the account's token holdings with values recomputed at the
// current redemption values.
func (s *Service) Holdings(ctx context.Context, account string) ([]*HoldingView, error) {
	holdings, err := s.Repo.ListHoldings(ctx, account)
	if err != nil {
		return nil, err
	}
	views := make([]*HoldingView, 0, len(holdings))
	for _, h := range holdings {
		token, err := s.Repo.GetToken(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}
		views = append(views, &HoldingView{
			Symbol:             h.Symbol,
			TokenAmount:        h.TokenAmount,
			OriginalBaseAmount: h.OriginalBaseAmount,
			CurrentValue:       h.CurrentValue(token.RedemptionValue),
			YieldEarned:        h.YieldEarned(token.RedemptionValue),
		})
	}
	return views, nil
}

// HoldingView is a holding with its derived values filled in.
type HoldingView struct {
	Symbol             domain.TokenSymbol
	TokenAmount        decimal.Decimal
	OriginalBaseAmount decimal.Decimal
	CurrentValue       decimal.Decimal
	YieldEarned        decimal.Decimal
}
