package yield

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketpay/bucketpay-backend/internal/adapter/repository/memory"
	"github.com/bucketpay/bucketpay-backend/internal/domain"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
)

const account = "acct-1"

func newTestService(t *testing.T, growth int64) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	service := NewService(store, store, store, locks.NewKeyed())

	require.NoError(t, store.SaveToken(context.Background(), &domain.YieldToken{
		Symbol:          domain.TokenUSDY,
		RedemptionValue: decimal.NewFromInt(1),
		APY:             decimal.NewFromFloat(0.05),
		LastAccruedAt:   time.Now(),
	}))

	config := domain.SplitConfig{
		Percentages: map[domain.BucketType]int64{
			domain.BucketBillings:  3000,
			domain.BucketSavings:   2000,
			domain.BucketGrowth:    2000,
			domain.BucketInstant:   2000,
			domain.BucketSpendable: 1000,
		},
		Enabled: map[domain.BucketType]bool{
			domain.BucketBillings:  true,
			domain.BucketSavings:   true,
			domain.BucketGrowth:    true,
			domain.BucketInstant:   true,
			domain.BucketSpendable: true,
		},
	}
	set := domain.NewBucketSet(config)
	set[domain.BucketGrowth].Balance = decimal.NewFromInt(growth)
	require.NoError(t, store.SaveSet(context.Background(), account, set))
	return service, store
}

func TestConvert_DebitsBucketAndTracksHolding(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 10_000)

	holding, err := service.Convert(ctx, account, domain.BucketGrowth, decimal.NewFromInt(4000), domain.TokenUSDY)
	require.NoError(t, err)

	// At redemption value 1.0 the token amount equals the base amount.
	assert.True(t, holding.TokenAmount.Equal(decimal.NewFromInt(4000)))
	assert.True(t, holding.OriginalBaseAmount.Equal(decimal.NewFromInt(4000)))

	set, err := store.GetSet(ctx, account)
	require.NoError(t, err)
	growth := set[domain.BucketGrowth]
	assert.True(t, growth.Balance.Equal(decimal.NewFromInt(6000)))
	assert.True(t, growth.YieldBalance.Equal(decimal.NewFromInt(4000)))
	assert.True(t, growth.IsYielding)
}

func TestConvert_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 100)

	_, err := service.Convert(ctx, account, domain.BucketGrowth, decimal.NewFromInt(4000), domain.TokenUSDY)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestConvert_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 10_000)

	_, err := service.Convert(ctx, account, domain.BucketGrowth, decimal.Zero, domain.TokenUSDY)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = service.Convert(ctx, account, domain.BucketExternal, decimal.NewFromInt(10), domain.TokenUSDY)
	assert.ErrorIs(t, err, domain.ErrInvalidBucket)

	_, err = service.Convert(ctx, account, domain.BucketGrowth, decimal.NewFromInt(10), domain.TokenSymbol("DOGE"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConvertRedeem_RoundTripWithinOneUnit(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 10_000)

	holding, err := service.Convert(ctx, account, domain.BucketGrowth, decimal.NewFromInt(3337), domain.TokenUSDY)
	require.NoError(t, err)

	credited, err := service.Redeem(ctx, account, domain.BucketGrowth, holding.TokenAmount, domain.TokenUSDY)
	require.NoError(t, err)

	// Floored at redemption, so the round trip may lose at most one base unit.
	loss := decimal.NewFromInt(3337).Sub(credited)
	assert.True(t, loss.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, loss.LessThanOrEqual(decimal.NewFromInt(1)))

	set, err := store.GetSet(ctx, account)
	require.NoError(t, err)
	growth := set[domain.BucketGrowth]
	assert.True(t, growth.YieldBalance.IsZero())
	assert.False(t, growth.IsYielding)
}

func TestRedeem_AfterAccrualPaysYield(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 100_000)

	_, err := service.Convert(ctx, account, domain.BucketGrowth, decimal.NewFromInt(100_000), domain.TokenUSDY)
	require.NoError(t, err)

	// One year at 5% APY on a redemption value of 1.0.
	token, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	require.NoError(t, service.Accrue(ctx, token.LastAccruedAt.Add(365*24*time.Hour)))

	credited, err := service.Redeem(ctx, account, domain.BucketGrowth, decimal.NewFromInt(100_000), domain.TokenUSDY)
	require.NoError(t, err)
	assert.True(t, credited.Equal(decimal.NewFromInt(105_000)))

	views, err := service.Holdings(ctx, account)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].TokenAmount.IsZero())
}

func TestRedeem_InsufficientHolding(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 10_000)

	_, err := service.Convert(ctx, account, domain.BucketGrowth, decimal.NewFromInt(100), domain.TokenUSDY)
	require.NoError(t, err)

	_, err = service.Redeem(ctx, account, domain.BucketGrowth, decimal.NewFromInt(200), domain.TokenUSDY)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestAccrue_RedemptionValueNeverDecreases(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 0)

	before, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)

	// A clock reading earlier than the last accrual is skipped entirely.
	require.NoError(t, service.Accrue(ctx, before.LastAccruedAt.Add(-time.Hour)))
	unchanged, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	assert.True(t, unchanged.RedemptionValue.Equal(before.RedemptionValue))

	require.NoError(t, service.Accrue(ctx, before.LastAccruedAt.Add(30*24*time.Hour)))
	grown, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	assert.True(t, grown.RedemptionValue.GreaterThan(before.RedemptionValue))
}

func TestAccrue_IdempotentAtSameInstant(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 0)

	token, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	at := token.LastAccruedAt.Add(24 * time.Hour)

	require.NoError(t, service.Accrue(ctx, at))
	first, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)

	require.NoError(t, service.Accrue(ctx, at))
	second, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	assert.True(t, second.RedemptionValue.Equal(first.RedemptionValue), "re-running at the same instant accrues nothing")
}

func TestHoldings_ReportsYieldEarnedAtCurrentValue(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 50_000)

	_, err := service.Convert(ctx, account, domain.BucketGrowth, decimal.NewFromInt(50_000), domain.TokenUSDY)
	require.NoError(t, err)

	token, err := store.GetToken(ctx, domain.TokenUSDY)
	require.NoError(t, err)
	require.NoError(t, service.Accrue(ctx, token.LastAccruedAt.Add(365*24*time.Hour)))

	views, err := service.Holdings(ctx, account)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].CurrentValue.Equal(decimal.NewFromInt(52_500)))
	assert.True(t, views[0].YieldEarned.Equal(decimal.NewFromInt(2500)))
}
