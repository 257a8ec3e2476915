package allocator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// Allocate splits a deposit across the enabled buckets of a validated split
// config.
// Logic:
//  1. Each enabled bucket receives floor(amount * percentage / 10000).
//  2. Disabled buckets receive zero; their would-be share is NOT redistributed
//     here (redistribution is a caller-side policy applied to the config).
//  3. The floor-rounding remainder (at most len(BucketTypes)-1 units) is
//     returned separately so the caller can route it; it is never dropped.
//
// Safety: Ensures allocations plus remainder equal the amount exactly.
func Allocate(amount decimal.Decimal, config domain.SplitConfig) (domain.PerBucketAmounts, decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, fmt.Errorf("%w: deposit amount must be positive", domain.ErrInvalidAmount)
	}

	whole := decimal.NewFromInt(domain.BasisPointsTotal)
	allocation := make(domain.PerBucketAmounts, len(domain.BucketTypes))
	for _, t := range domain.BucketTypes {
		if !config.Enabled[t] {
			allocation[t] = decimal.Zero
			continue
		}
		bp := decimal.NewFromInt(config.Percentages[t])
		allocation[t] = amount.Mul(bp).Div(whole).Floor()
	}

	remainder := amount.Sub(allocation.Total())
	if remainder.IsNegative() || remainder.GreaterThanOrEqual(decimal.NewFromInt(int64(len(domain.BucketTypes)))) {
		return nil, decimal.Zero, fmt.Errorf("%w: allocation remainder %s out of bounds", domain.ErrInvalidAmount, remainder)
	}

	return allocation, remainder, nil
}
