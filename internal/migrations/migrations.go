package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema for the stock tracking backend. Statements
// are idempotent so Run is safe on every boot.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            login_id TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL,
            password TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS stock_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            sku TEXT NOT NULL UNIQUE,
            description TEXT NOT NULL DEFAULT '',
            price TEXT NOT NULL DEFAULT '0',
            min_stock INTEGER NOT NULL DEFAULT 10,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS warehouses (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            code TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            capacity INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS locations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            code TEXT NOT NULL,
            warehouse_id INTEGER NOT NULL,
            FOREIGN KEY(warehouse_id) REFERENCES warehouses(id)
        );`,
		`CREATE TABLE IF NOT EXISTS stock_levels (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            stock_item_id INTEGER NOT NULL,
            location_id INTEGER NOT NULL,
            quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            UNIQUE(stock_item_id, location_id),
            FOREIGN KEY(stock_item_id) REFERENCES stock_items(id),
            FOREIGN KEY(location_id) REFERENCES locations(id)
        );`,
		`CREATE TABLE IF NOT EXISTS stock_transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            type TEXT NOT NULL CHECK (type IN ('RECEIPT','DELIVERY','TRANSFER')),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            stock_item_id INTEGER NOT NULL,
            user_id INTEGER,
            location_id INTEGER NOT NULL,
            to_location_id INTEGER,
            reference TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'COMPLETED',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(stock_item_id) REFERENCES stock_items(id),
            FOREIGN KEY(user_id) REFERENCES users(id),
            FOREIGN KEY(location_id) REFERENCES locations(id),
            FOREIGN KEY(to_location_id) REFERENCES locations(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_stock_transactions_created_at
            ON stock_transactions(created_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
