// Package migrations applies the database schema. Statements are idempotent
// so Apply can run on every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		sponsor_id TEXT NOT NULL DEFAULT '',
		refer_code TEXT NOT NULL UNIQUE,
		balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		generation JSONB NOT NULL DEFAULT '{}'::jsonb,
		remark TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_balance_non_negative CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		screenshot TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS withdraw_details (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		wallet_name TEXT NOT NULL DEFAULT '',
		protocol TEXT NOT NULL DEFAULT '',
		wallet_address TEXT NOT NULL DEFAULT '',
		names TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS withdraw_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		wallet_name TEXT NOT NULL DEFAULT '',
		wallet_address TEXT NOT NULL DEFAULT '',
		protocol TEXT NOT NULL DEFAULT '',
		names TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		approved_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS task_assignments (
		user_id TEXT PRIMARY KEY,
		tasks JSONB NOT NULL DEFAULT '[]'::jsonb
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_id TEXT NOT NULL DEFAULT '',
		amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		img TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS payment_wallets (
		id TEXT PRIMARY KEY,
		wallet_name TEXT NOT NULL,
		wallet_address TEXT NOT NULL,
		img TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS support_contacts (
		id TEXT PRIMARY KEY,
		telegram_username TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS admin_credentials (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deposits_username ON deposits (username)`,
	`CREATE INDEX IF NOT EXISTS idx_withdraw_requests_user_id ON withdraw_requests (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id)`,
}

// Apply runs every schema statement in order against the database.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
