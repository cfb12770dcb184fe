package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		default_wallet_id BIGINT,
		password_hash TEXT,
		slippage_percent DOUBLE PRECISION NOT NULL DEFAULT 5.0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS wallets (
		wallet_id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (user_id),
		wallet_name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		encrypted_private_key TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		tx_id BIGSERIAL PRIMARY KEY,
		wallet_id BIGINT NOT NULL REFERENCES wallets (wallet_id),
		tx_hash TEXT,
		tx_type TEXT NOT NULL,
		token_address TEXT NOT NULL,
		amount_in TEXT NOT NULL,
		amount_out TEXT,
		gas_used TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_wallets_user_id ON wallets (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet_id ON transactions (wallet_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions (status)`,
}

// Migrate applies the schema. Statements are idempotent so this runs on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	fmt.Printf("[DB] Schema up to date (%d statements)\n", len(migrations))
	return nil
}
