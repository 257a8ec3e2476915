package goals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketpay/bucketpay-backend/internal/adapter/repository/memory"
	"github.com/bucketpay/bucketpay-backend/internal/domain"
	"github.com/bucketpay/bucketpay-backend/internal/platform/locks"
)

const account = "acct-1"

func newTestService(t *testing.T, savings int64) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	service := NewService(store, store, store, locks.NewKeyed())

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
	set[domain.BucketSavings].Balance = decimal.NewFromInt(savings)
	require.NoError(t, store.SaveSet(context.Background(), account, set))
	return service, store
}

func createGoal(t *testing.T, service *Service, target int64) *domain.SavingsGoal {
	t.Helper()
	goal, err := service.CreateGoal(context.Background(), account,
		decimal.NewFromInt(target), time.Now().Add(60*24*time.Hour), "vacation")
	require.NoError(t, err)
	return goal
}

func TestContribute_DebitsSavingsIntoGoal(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 1000)
	goal := createGoal(t, service, 5000)

	updated, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(400))
	require.NoError(t, err)

	assert.True(t, updated.CurrentAmount.Equal(decimal.NewFromInt(400)))
	assert.False(t, updated.Completed)
	assert.True(t, updated.Locked)

	set, err := store.GetSet(ctx, account)
	require.NoError(t, err)
	assert.True(t, set[domain.BucketSavings].Balance.Equal(decimal.NewFromInt(600)))
}

func TestContribute_InsufficientSavings(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 100)
	goal := createGoal(t, service, 5000)

	_, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(400))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	set, err := store.GetSet(ctx, account)
	require.NoError(t, err)
	assert.True(t, set[domain.BucketSavings].Balance.Equal(decimal.NewFromInt(100)), "failed contribution is side-effect free")

	fetched, err := store.GetByID(ctx, account, goal.ID)
	require.NoError(t, err)
	assert.True(t, fetched.CurrentAmount.IsZero())
}

func TestContribute_CompletesAtomicallyWithOvershoot(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 10_000)
	goal := createGoal(t, service, 5000)

	_, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(4800))
	require.NoError(t, err)

	// The overshooting contribution is retained in full and completes the goal
	// in the same step.
	updated, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.True(t, updated.Locked)
	assert.True(t, updated.CurrentAmount.Equal(decimal.NewFromInt(5300)))
	assert.Equal(t, domain.CompletionBonusBasisPoints, updated.BonusBasisPoints)
}

func TestContribute_CompletedGoalRejectsFurtherContributions(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 10_000)
	goal := createGoal(t, service, 1000)

	_, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrAlreadyCompleted)
}

func TestWithdraw_BeforeCompletionFails(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 10_000)
	goal := createGoal(t, service, 5000)

	_, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(4999))
	require.NoError(t, err)

	_, err = service.Withdraw(ctx, account, goal.ID)
	assert.ErrorIs(t, err, domain.ErrNotCompleted)

	// Locked funds stay locked.
	set, err := store.GetSet(ctx, account)
	require.NoError(t, err)
	assert.True(t, set[domain.BucketSavings].Balance.Equal(decimal.NewFromInt(5001)))
}

func TestWithdraw_PaysBonusBackToSavings(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t, 10_050)
	goal := createGoal(t, service, 10_050)

	_, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(10_050))
	require.NoError(t, err)

	payout, err := service.Withdraw(ctx, account, goal.ID)
	require.NoError(t, err)
	// 10050 + floor(10050 * 100bp) = 10150
	assert.True(t, payout.Equal(decimal.NewFromInt(10_150)))

	set, err := store.GetSet(ctx, account)
	require.NoError(t, err)
	assert.True(t, set[domain.BucketSavings].Balance.Equal(decimal.NewFromInt(10_150)))

	released, err := store.GetByID(ctx, account, goal.ID)
	require.NoError(t, err)
	assert.False(t, released.Locked)
	assert.True(t, released.CurrentAmount.IsZero())
}

func TestWithdraw_ReleasedGoalCannotBeWithdrawnTwice(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 10_000)
	goal := createGoal(t, service, 1000)

	_, err := service.Contribute(ctx, account, goal.ID, decimal.NewFromInt(1000))
	require.NoError(t, err)
	_, err = service.Withdraw(ctx, account, goal.ID)
	require.NoError(t, err)

	_, err = service.Withdraw(ctx, account, goal.ID)
	assert.ErrorIs(t, err, domain.ErrNotCompleted)
}

func TestContribute_UnknownGoal(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 10_000)

	_, err := service.Contribute(ctx, account, uuid.New(), decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListGoals(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, 10_000)
	createGoal(t, service, 1000)
	createGoal(t, service, 2000)

	goals, err := service.ListGoals(ctx, account)
	require.NoError(t, err)
	assert.Len(t, goals, 2)
}
