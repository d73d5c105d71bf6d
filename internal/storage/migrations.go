package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate runs all database migrations
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		createServersTable,
		createTrustedCertificatesTable,
		createIndexes,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	// Handle server title/activation columns separately (check if columns exist first)
	if err := migrateServerColumns(db); err != nil {
		return fmt.Errorf("server columns migration failed: %w", err)
	}

	return nil
}

const createServersTable = `
CREATE TABLE IF NOT EXISTS servers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const createTrustedCertificatesTable = `
CREATE TABLE IF NOT EXISTS trusted_certificates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    host TEXT NOT NULL UNIQUE,
    fingerprint TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    issuer TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_servers_created ON servers(created_at);
`

// migrateServerColumns adds title and last_activated_at to servers if they don't exist
func migrateServerColumns(db *sqlx.DB) error {
	columns := []struct {
		name string
		ddl  string
	}{
		{"title", "ALTER TABLE servers ADD COLUMN title TEXT NOT NULL DEFAULT ''"},
		{"last_activated_at", "ALTER TABLE servers ADD COLUMN last_activated_at TIMESTAMP"},
	}

	for _, column := range columns {
		var columnExists int
		err := db.Get(&columnExists,
			"SELECT COUNT(*) FROM pragma_table_info('servers') WHERE name=?", column.name)
		if err != nil {
			return fmt.Errorf("failed to check for %s column: %w", column.name, err)
		}
		if columnExists > 0 {
			continue
		}
		if _, err := db.Exec(column.ddl); err != nil {
			return fmt.Errorf("failed to add %s column: %w", column.name, err)
		}
	}

	return nil
}
