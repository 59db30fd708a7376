// Package database opens the Postgres pool, bootstraps the schema and
// provides the transaction boundary used by the checkout.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var ErrNoDatabaseURL = errors.New("DATABASE_URL is not set")

// Open connects to Postgres through the pgx stdlib driver and pings it.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, ErrNoDatabaseURL
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// schema is applied in order at startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id SERIAL PRIMARY KEY,
		company_name TEXT NOT NULL,
		tax_id TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		client_id INT REFERENCES clients(id) ON DELETE CASCADE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		id SERIAL PRIMARY KEY,
		product_id INT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		color TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_luminous BOOLEAN NOT NULL DEFAULT FALSE,
		has_variants BOOLEAN NOT NULL DEFAULT TRUE,
		stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		unit_price NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0),
		bulk_price NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (bulk_price >= 0),
		image_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id SERIAL PRIMARY KEY,
		client_id INT NOT NULL UNIQUE REFERENCES clients(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id SERIAL PRIMARY KEY,
		cart_id INT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		variant_id INT NOT NULL REFERENCES product_variants(id) ON DELETE CASCADE,
		quantity INT NOT NULL CHECK (quantity > 0),
		variant_details TEXT NOT NULL DEFAULT '',
		UNIQUE (cart_id, variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id SERIAL PRIMARY KEY,
		client_id INT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		status TEXT NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		net_total NUMERIC(12,2) NOT NULL DEFAULT 0,
		vat_total NUMERIC(12,2) NOT NULL DEFAULT 0,
		payment_method TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		variant_id INT NOT NULL REFERENCES product_variants(id) ON DELETE CASCADE,
		quantity INT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10,2) NOT NULL,
		net_unit_price NUMERIC(10,2) NOT NULL DEFAULT 0,
		vat_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		subtotal NUMERIC(12,2) NOT NULL,
		net_subtotal NUMERIC(12,2) NOT NULL DEFAULT 0,
		vat_subtotal NUMERIC(12,2) NOT NULL DEFAULT 0,
		variant_details TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS purchase_orders_client_created_idx ON purchase_orders (client_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_idx ON order_items (order_id)`,
}

// EnsureSchema creates any missing table or index.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
