package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bucketpay/bucketpay-backend/internal/domain"
)

// yieldRepository implements domain.YieldRepository.
type yieldRepository struct {
	db *DB
}

// NewYieldRepository creates a new yield repository.
func NewYieldRepository(db *DB) domain.YieldRepository {
	return &yieldRepository{db: db}
}

func scanToken(scan func(dest ...any) error) (*domain.YieldToken, error) {
	var token domain.YieldToken
	var symbol, rvStr, apyStr string

	err := scan(&symbol, &rvStr, &apyStr, &token.LastAccruedAt)
	if err != nil {
		return nil, err
	}
	token.Symbol = domain.TokenSymbol(symbol)
	if token.RedemptionValue, err = decimal.NewFromString(rvStr); err != nil {
		return nil, fmt.Errorf("failed to parse redemption_value: %w", err)
	}
	if token.APY, err = decimal.NewFromString(apyStr); err != nil {
		return nil, fmt.Errorf("failed to parse apy: %w", err)
	}
	return &token, nil
}

// GetToken retrieves one token by symbol.
func (r *yieldRepository) GetToken(ctx context.Context, symbol domain.TokenSymbol) (*domain.YieldToken, error) {
	query := `
		SELECT symbol, redemption_value, apy, last_accrued_at
		FROM yield_tokens
		WHERE symbol = $1
	`

	token, err := scanToken(r.db.q(ctx).QueryRowContext(ctx, query, string(symbol)).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: token %s", domain.ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// SaveToken upserts a token row.
func (r *yieldRepository) SaveToken(ctx context.Context, token *domain.YieldToken) error {
	query := `
		INSERT INTO yield_tokens (symbol, redemption_value, apy, last_accrued_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol) DO UPDATE SET
			redemption_value = EXCLUDED.redemption_value,
			apy = EXCLUDED.apy,
			last_accrued_at = EXCLUDED.last_accrued_at
	`

	_, err := r.db.q(ctx).ExecContext(ctx, query,
		string(token.Symbol),
		token.RedemptionValue.String(),
		token.APY.String(),
		token.LastAccruedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// ListTokens retrieves all tokens.
func (r *yieldRepository) ListTokens(ctx context.Context) ([]*domain.YieldToken, error) {
	query := `
		SELECT symbol, redemption_value, apy, last_accrued_at
		FROM yield_tokens
		ORDER BY symbol
	`

	rows, err := r.db.q(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.YieldToken
	for rows.Next() {
		token, err := scanToken(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token rows: %w", err)
	}
	return tokens, nil
}

func scanHolding(scan func(dest ...any) error) (*domain.Holding, error) {
	var holding domain.Holding
	var symbol, tokenStr, baseStr string

	err := scan(&holding.Account, &symbol, &tokenStr, &baseStr)
	if err != nil {
		return nil, err
	}
	holding.Symbol = domain.TokenSymbol(symbol)
	if holding.TokenAmount, err = decimal.NewFromString(tokenStr); err != nil {
		return nil, fmt.Errorf("failed to parse token_amount: %w", err)
	}
	if holding.OriginalBaseAmount, err = decimal.NewFromString(baseStr); err != nil {
		return nil, fmt.Errorf("failed to parse original_base_amount: %w", err)
	}
	return &holding, nil
}

// GetHolding retrieves one account's holding of one token.
func (r *yieldRepository) GetHolding(ctx context.Context, account string, symbol domain.TokenSymbol) (*domain.Holding, error) {
	query := `
		SELECT account, symbol, token_amount, original_base_amount
		FROM yield_holdings
		WHERE account = $1 AND symbol = $2
	`

	holding, err := scanHolding(r.db.q(ctx).QueryRowContext(ctx, query, account, string(symbol)).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no %s holding for account %s", domain.ErrNotFound, symbol, account)
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return holding, nil
}

// SaveHolding upserts a holding row.
func (r *yieldRepository) SaveHolding(ctx context.Context, holding *domain.Holding) error {
	query := `
		INSERT INTO yield_holdings (account, symbol, token_amount, original_base_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account, symbol) DO UPDATE SET
			token_amount = EXCLUDED.token_amount,
			original_base_amount = EXCLUDED.original_base_amount
	`

	_, err := r.db.q(ctx).ExecContext(ctx, query,
		holding.Account,
		string(holding.Symbol),
		holding.TokenAmount.String(),
		holding.OriginalBaseAmount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	return nil
}

// ListHoldings retrieves all holdings of an account.
func (r *yieldRepository) ListHoldings(ctx context.Context, account string) ([]*domain.Holding, error) {
	query := `
		SELECT account, symbol, token_amount, original_base_amount
		FROM yield_holdings
		WHERE account = $1
		ORDER BY symbol
	`

	rows, err := r.db.q(ctx).QueryContext(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*domain.Holding
	for rows.Next() {
		holding, err := scanHolding(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding row: %w", err)
		}
		holdings = append(holdings, holding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read holding rows: %w", err)
	}
	return holdings, nil
}
