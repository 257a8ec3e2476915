package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// TokenSeeder ensures the supported yield tokens exist at startup.
type TokenSeeder struct {
	Repo domain.YieldRepository
}

// NewTokenSeeder creates a new TokenSeeder instance.
func NewTokenSeeder(repo domain.YieldRepository) *TokenSeeder {
	return &TokenSeeder{Repo: repo}
}

// defaults are the launch tokens: redemption value 1.0, fixed APY.
var defaults = []struct {
	Symbol domain.TokenSymbol
	APY    decimal.Decimal
}{
	{Symbol: domain.TokenUSDY, APY: decimal.NewFromFloat(0.05)},
	{Symbol: domain.TokenMUSD, APY: decimal.NewFromFloat(0.08)},
}

// Seed creates any missing token rows. Existing tokens are left untouched, so
// repeated startups never reset accrued redemption values.
func (s *TokenSeeder) Seed(ctx context.Context) error {
	for _, d := range defaults {
		_, err := s.Repo.GetToken(ctx, d.Symbol)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to look up token %s: %w", d.Symbol, err)
		}
		token := &domain.YieldToken{
			Symbol:          d.Symbol,
			RedemptionValue: decimal.NewFromInt(1),
			APY:             d.APY,
			LastAccruedAt:   time.Now(),
		}
		if err := token.Validate(); err != nil {
			return err
		}
		if err := s.Repo.SaveToken(ctx, token); err != nil {
			return fmt.Errorf("failed to seed token %s: %w", d.Symbol, err)
		}
	}
	return nil
}
