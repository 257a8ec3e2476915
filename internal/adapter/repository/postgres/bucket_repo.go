package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// bucketRepository implements domain.BucketRepository with one row per
// (account, bucket type).
type bucketRepository struct {
	db *DB
}

// NewBucketRepository creates a new bucket repository.
func NewBucketRepository(db *DB) domain.BucketRepository {
	return &bucketRepository{db: db}
}

// GetSet retrieves the full bucket set for an account.
func (r *bucketRepository) GetSet(ctx context.Context, account string) (domain.BucketSet, error) {
	query := `
		SELECT bucket_type, balance, percentage_bp, enabled, yield_balance, is_yielding
		FROM buckets
		WHERE account = $1
	`

	rows, err := r.db.q(ctx).QueryContext(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer rows.Close()

	set := make(domain.BucketSet)
	for rows.Next() {
		var bucket domain.Bucket
		var bucketType string
		var balanceStr, yieldStr string

		if err := rows.Scan(&bucketType, &balanceStr, &bucket.Percentage, &bucket.Enabled, &yieldStr, &bucket.IsYielding); err != nil {
			return nil, fmt.Errorf("failed to scan bucket row: %w", err)
		}
		bucket.Type = domain.BucketType(bucketType)
		if bucket.Balance, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance: %w", err)
		}
		if bucket.YieldBalance, err = decimal.NewFromString(yieldStr); err != nil {
			return nil, fmt.Errorf("failed to parse yield_balance: %w", err)
		}
		set[bucket.Type] = &bucket
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bucket rows: %w", err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: no ledger for account %s", domain.ErrNotFound, account)
	}
	return set, nil
}

// SaveSet upserts the full bucket set for an account.
func (r *bucketRepository) SaveSet(ctx context.Context, account string, set domain.BucketSet) error {
	query := `
		INSERT INTO buckets (account, bucket_type, balance, percentage_bp, enabled, yield_balance, is_yielding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account, bucket_type) DO UPDATE SET
			balance = EXCLUDED.balance,
			percentage_bp = EXCLUDED.percentage_bp,
			enabled = EXCLUDED.enabled,
			yield_balance = EXCLUDED.yield_balance,
			is_yielding = EXCLUDED.is_yielding
	`

	for _, t := range domain.BucketTypes {
		bucket, ok := set[t]
		if !ok {
			continue
		}
		_, err := r.db.q(ctx).ExecContext(ctx, query,
			account,
			string(bucket.Type),
			bucket.Balance.String(),
			bucket.Percentage,
			bucket.Enabled,
			bucket.YieldBalance.String(),
			bucket.IsYielding,
		)
		if err != nil {
			return fmt.Errorf("failed to save bucket %s: %w", t, err)
		}
	}
	return nil
}
