package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the POS backend. The dialect is
// picked from the driver the connection was opened with.
func Run(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "pgx" {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Money columns are TEXT in SQLite so decimals round-trip exactly.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS drugs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		generic_name TEXT,
		manufacturer TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL,
		price TEXT NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		minimum_stock INTEGER NOT NULL DEFAULT 10 CHECK (minimum_stock >= 0),
		expiry_date DATE,
		batch_number TEXT,
		description TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_drugs_name ON drugs (name);`,
	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		transaction_number TEXT NOT NULL UNIQUE,
		customer_name TEXT,
		total_amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		cashier_id TEXT NOT NULL REFERENCES users(id),
		transaction_date DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (transaction_date);`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id),
		line_no INTEGER NOT NULL,
		drug_id TEXT NOT NULL REFERENCES drugs(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		subtotal TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items (sale_id);`,
	`CREATE TABLE IF NOT EXISTS transaction_counters (
		day TEXT PRIMARY KEY,
		last_value INTEGER NOT NULL
	);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS drugs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		generic_name TEXT,
		manufacturer TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		unit TEXT NOT NULL,
		price NUMERIC(14,2) NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		minimum_stock INTEGER NOT NULL DEFAULT 10 CHECK (minimum_stock >= 0),
		expiry_date DATE,
		batch_number TEXT,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_drugs_name ON drugs (name);`,
	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		transaction_number TEXT NOT NULL UNIQUE,
		customer_name TEXT,
		total_amount NUMERIC(14,2) NOT NULL,
		payment_method TEXT NOT NULL,
		cashier_id TEXT NOT NULL REFERENCES users(id),
		transaction_date TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (transaction_date);`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id),
		line_no INTEGER NOT NULL,
		drug_id TEXT NOT NULL REFERENCES drugs(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(14,2) NOT NULL,
		subtotal NUMERIC(14,2) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items (sale_id);`,
	`CREATE TABLE IF NOT EXISTS transaction_counters (
		day TEXT PRIMARY KEY,
		last_value BIGINT NOT NULL
	);`,
}
