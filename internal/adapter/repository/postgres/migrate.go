package postgres

import (
	"context"
	"fmt"
)

// migrations are applied in order at startup; every statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS buckets (
		account       TEXT        NOT NULL,
		bucket_type   TEXT        NOT NULL,
		balance       NUMERIC     NOT NULL DEFAULT 0,
		percentage_bp BIGINT      NOT NULL DEFAULT 0,
		enabled       BOOLEAN     NOT NULL DEFAULT TRUE,
		yield_balance NUMERIC     NOT NULL DEFAULT 0,
		is_yielding   BOOLEAN     NOT NULL DEFAULT FALSE,
		PRIMARY KEY (account, bucket_type)
	)`,
	`CREATE TABLE IF NOT EXISTS savings_goals (
		id                 UUID        PRIMARY KEY,
		account            TEXT        NOT NULL,
		target_amount      NUMERIC     NOT NULL,
		current_amount     NUMERIC     NOT NULL DEFAULT 0,
		target_date        TIMESTAMPTZ NOT NULL,
		description        TEXT        NOT NULL DEFAULT '',
		completed          BOOLEAN     NOT NULL DEFAULT FALSE,
		locked             BOOLEAN     NOT NULL DEFAULT TRUE,
		bonus_basis_points BIGINT      NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_savings_goals_account ON savings_goals (account)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id          UUID        PRIMARY KEY,
		employer    TEXT        NOT NULL,
		name        TEXT        NOT NULL,
		payout_ref  TEXT        NOT NULL,
		salary      NUMERIC     NOT NULL,
		payment_day INT         NOT NULL,
		active      BOOLEAN     NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_employer ON employees (employer)`,
	`CREATE TABLE IF NOT EXISTS payroll_batches (
		id             UUID        PRIMARY KEY,
		employer       TEXT        NOT NULL,
		scheduled_at   TIMESTAMPTZ NOT NULL,
		lines          JSONB       NOT NULL,
		total_amount   NUMERIC     NOT NULL,
		processed      BOOLEAN     NOT NULL DEFAULT FALSE,
		failed         BOOLEAN     NOT NULL DEFAULT FALSE,
		failure_reason TEXT        NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payroll_batches_due ON payroll_batches (scheduled_at) WHERE NOT processed AND NOT failed`,
	`CREATE TABLE IF NOT EXISTS payroll_pools (
		employer TEXT    PRIMARY KEY,
		balance  NUMERIC NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS yield_tokens (
		symbol           TEXT        PRIMARY KEY,
		redemption_value NUMERIC     NOT NULL,
		apy              NUMERIC     NOT NULL,
		last_accrued_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS yield_holdings (
		account              TEXT    NOT NULL,
		symbol               TEXT    NOT NULL,
		token_amount         NUMERIC NOT NULL DEFAULT 0,
		original_base_amount NUMERIC NOT NULL DEFAULT 0,
		PRIMARY KEY (account, symbol)
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
