// Package sqlite
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"plugfolio-deployer/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

func NewSqliteDB(dbPath string, log logger.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("sqlite connection established successfully", "path", dbPath)

	if err := runMigration(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

var migrations = []struct {
	table string
	query string
}{
	{
		table: "parameters",
		query: `
	CREATE TABLE IF NOT EXISTS parameters (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);
	`,
	},
	{
		table: "dns_records",
		query: `
	CREATE TABLE IF NOT EXISTS dns_records (
		zone TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		ttl INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (zone, name, type)
	);
	`,
	},
}

func runMigration(db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.Exec(m.query); err != nil {
			return fmt.Errorf("failed to migrate %s table: %w", m.table, err)
		}
	}
	return nil
}
