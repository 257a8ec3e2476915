package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TokenSymbol identifies a yield-bearing synthetic token.
type TokenSymbol string

const (
	TokenUSDY TokenSymbol = "USDY"
	TokenMUSD TokenSymbol = "mUSD"
)

// TokenSymbols lists the supported tokens.
var TokenSymbols = []TokenSymbol{TokenUSDY, TokenMUSD}

// Valid reports whether s is a supported token symbol.
func (s TokenSymbol) Valid() bool {
	return s == TokenUSDY || s == TokenMUSD
}

// ParseTokenSymbol converts a wire string into a TokenSymbol.
func ParseTokenSymbol(raw string) (TokenSymbol, error) {
	s := TokenSymbol(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown token symbol %q", ErrNotFound, raw)
	}
	return s, nil
}

// YieldToken tracks the redemption value of one synthetic token. The
// redemption value is the base-currency value of one token unit; it starts at
// 1.0 and only ever grows as yield accrues.
type YieldToken struct {
	Symbol          TokenSymbol
	RedemptionValue decimal.Decimal
	APY             decimal.Decimal // annual yield as a fraction, 0 < apy <= 0.5
	LastAccruedAt   time.Time
}

// Validate ensures the token adheres to domain rules.
func (t *YieldToken) Validate() error {
	if !t.Symbol.Valid() {
		return fmt.Errorf("%w: unknown token symbol %q", ErrNotFound, t.Symbol)
	}
	if t.RedemptionValue.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: redemption value %s below 1.0", ErrInvalidAmount, t.RedemptionValue)
	}
	if t.APY.LessThanOrEqual(decimal.Zero) || t.APY.GreaterThan(decimal.NewFromFloat(0.5)) {
		return fmt.Errorf("%w: apy %s outside (0, 0.5]", ErrInvalidAmount, t.APY)
	}
	return nil
}

// Holding is one account's balance of one yield token. Only TokenAmount and
// OriginalBaseAmount are persisted; current value and earned yield are always
// recomputed from the token's redemption value.
type Holding struct {
	Account            string
	Symbol             TokenSymbol
	TokenAmount        decimal.Decimal
	OriginalBaseAmount decimal.Decimal
}

// CurrentValue returns the base-currency value of the holding at the given
// redemption value.
func (h *Holding) CurrentValue(redemptionValue decimal.Decimal) decimal.Decimal {
	return h.TokenAmount.Mul(redemptionValue)
}

// YieldEarned returns the accrued gain over the originally wrapped amount.
func (h *Holding) YieldEarned(redemptionValue decimal.Decimal) decimal.Decimal {
	return h.CurrentValue(redemptionValue).Sub(h.OriginalBaseAmount)
}
