package sqlite

import (
	"database/sql"
)

// applyMigrations runs schema initialization for the SQLite database.
func applyMigrations(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

// Times are UTC unix nanoseconds so range comparisons are numeric.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS urls (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  short_code   TEXT    NOT NULL UNIQUE,
  original_url TEXT    NOT NULL,
  created_at   INTEGER NOT NULL,
  expiry_date  INTEGER NULL,
  click_count  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_urls_original_url ON urls(original_url);
CREATE INDEX IF NOT EXISTS idx_urls_created_at ON urls(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_urls_expiry_date ON urls(expiry_date);
`
