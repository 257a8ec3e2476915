package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BucketType identifies one of the five named sub-balances of an account.
type BucketType string

const (
	BucketBillings  BucketType = "BILLINGS"
	BucketSavings   BucketType = "SAVINGS"
	BucketGrowth    BucketType = "GROWTH"
	BucketInstant   BucketType = "INSTANT"
	BucketSpendable BucketType = "SPENDABLE"

	// BucketExternal is a transfer-target sentinel meaning funds leave the
	// ledger entirely. It is never a stored bucket.
	BucketExternal BucketType = "EXTERNAL"
)

// BucketTypes lists the stored bucket types in their canonical order.
var BucketTypes = []BucketType{
	BucketBillings,
	BucketSavings,
	BucketGrowth,
	BucketInstant,
	BucketSpendable,
}

// BasisPointsTotal is the whole: 10000 basis points = 100%.
const BasisPointsTotal int64 = 10000

// IsStored reports whether t is one of the five persisted bucket types.
func (t BucketType) IsStored() bool {
	switch t {
	case BucketBillings, BucketSavings, BucketGrowth, BucketInstant, BucketSpendable:
		return true
	}
	return false
}

// ParseBucketType converts a wire string into a BucketType.
func ParseBucketType(s string) (BucketType, error) {
	t := BucketType(s)
	if !t.IsStored() && t != BucketExternal {
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
	}
	return t, nil
}

// Bucket is one named sub-balance of an account.
// All monetary values are integer counts of the smallest currency unit
// (6-decimal stablecoin micro-units) held in a decimal, so conservation
// checks are exact.
type Bucket struct {
	Type         BucketType
	Balance      decimal.Decimal
	Percentage   int64 // basis points of incoming deposits, 0..10000
	Enabled      bool
	YieldBalance decimal.Decimal // book value currently wrapped into yield tokens
	IsYielding   bool
}

// BucketSet is the full set of buckets owned by one account.
type BucketSet map[BucketType]*Bucket

// NewBucketSet creates a zero-balance set carrying the given split config.
// The config must already be validated.
func NewBucketSet(config SplitConfig) BucketSet {
	set := make(BucketSet, len(BucketTypes))
	for _, t := range BucketTypes {
		set[t] = &Bucket{
			Type:         t,
			Balance:      decimal.Zero,
			Percentage:   config.Percentages[t],
			Enabled:      config.Enabled[t],
			YieldBalance: decimal.Zero,
		}
	}
	return set
}

// Total returns the sum of all bucket balances.
func (s BucketSet) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range BucketTypes {
		if b, ok := s[t]; ok {
			total = total.Add(b.Balance)
		}
	}
	return total
}

// ApplyConfig overwrites the set's percentages with an accepted split config.
func (s BucketSet) ApplyConfig(config SplitConfig) {
	for _, t := range BucketTypes {
		if b, ok := s[t]; ok {
			b.Percentage = config.Percentages[t]
			b.Enabled = config.Enabled[t]
		}
	}
}

// SplitConfig is the basis-point deposit split keyed by bucket type.
// It is accepted or rejected wholesale: enabled percentages must sum to
// exactly 10000 basis points.
type SplitConfig struct {
	Percentages map[BucketType]int64
	Enabled     map[BucketType]bool
}

// Validate ensures the split config adheres to domain rules.
func (c SplitConfig) Validate() error {
	var sum int64
	for t, bp := range c.Percentages {
		if !t.IsStored() {
			return fmt.Errorf("%w: %q in split config", ErrInvalidBucket, t)
		}
		if bp < 0 || bp > BasisPointsTotal {
			return fmt.Errorf("%w: percentage %d bp for %s out of range", ErrInvalidAmount, bp, t)
		}
		if c.Enabled[t] {
			sum += bp
		} else if bp != 0 {
			return fmt.Errorf("%w: disabled bucket %s carries %d bp", ErrInvalidAmount, t, bp)
		}
	}
	for t := range c.Enabled {
		if !t.IsStored() {
			return fmt.Errorf("%w: %q in split config", ErrInvalidBucket, t)
		}
	}
	if sum != BasisPointsTotal {
		return fmt.Errorf("%w: enabled percentages sum to %d bp, want %d", ErrInvalidAmount, sum, BasisPointsTotal)
	}
	return nil
}

// PerBucketAmounts maps bucket types to allocated amounts.
type PerBucketAmounts map[BucketType]decimal.Decimal

// Total returns the sum of all allocated amounts.
func (a PerBucketAmounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range a {
		total = total.Add(amount)
	}
	return total
}
