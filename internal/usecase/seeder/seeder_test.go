package seeder

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketpay/bucketpay-backend/internal/adapter/repository/memory"
	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

func TestSeed_CreatesLaunchTokens(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, NewTokenSeeder(store).Seed(ctx))

	tokens, err := store.ListTokens(ctx)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	usdy, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	assert.True(t, usdy.RedemptionValue.Equal(decimal.NewFromInt(1)))
	assert.True(t, usdy.APY.Equal(decimal.NewFromFloat(0.05)))

	musd, err := store.GetToken(ctx, domain.TokenMUSD)
	require.NoError(t, err)
	assert.True(t, musd.APY.Equal(decimal.NewFromFloat(0.08)))
}

func TestSeed_NeverResetsAccruedValues(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seeder := NewTokenSeeder(store)
	require.NoError(t, seeder.Seed(ctx))

	// Simulate accrued yield, then re-run the seeder as a restart would.
	token, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	token.RedemptionValue = decimal.NewFromFloat(1.07)
	require.NoError(t, store.SaveToken(ctx, token))

	require.NoError(t, seeder.Seed(ctx))

	kept, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	assert.True(t, kept.RedemptionValue.Equal(decimal.NewFromFloat(1.07)))
}
