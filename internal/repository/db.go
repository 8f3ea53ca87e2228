package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist for the given company.
var ErrNotFound = errors.New("not found")

// ErrBatchHasExpenses is returned when deleting a batch whose transactions
// were already promoted to expenses.
var ErrBatchHasExpenses = errors.New("import has transactions promoted to expenses")

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS import_batches (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			file_name TEXT NOT NULL,
			total_transactions INTEGER NOT NULL DEFAULT 0,
			matched_transactions INTEGER NOT NULL DEFAULT 0,
			unmatched_transactions INTEGER NOT NULL DEFAULT 0,
			skipped_rows INTEGER NOT NULL DEFAULT 0,
			total_amount REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			period_start DATETIME,
			period_end DATETIME,
			status TEXT NOT NULL,
			imported_by TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_import_batches_company ON import_batches(company_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS fuel_transactions (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			batch_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			transaction_time DATETIME NOT NULL,
			vehicle_raw TEXT NOT NULL,
			vehicle_key TEXT NOT NULL,
			card_number TEXT,
			reference TEXT,
			product TEXT,
			quantity REAL,
			unit TEXT,
			country TEXT,
			currency TEXT NOT NULL,
			net_amount REAL NOT NULL,
			vat_amount REAL NOT NULL,
			gross_amount REAL NOT NULL,
			vat_rate REAL NOT NULL DEFAULT 0,
			vat_refundable INTEGER NOT NULL DEFAULT 0,
			vat_strategy TEXT,
			needs_review INTEGER NOT NULL DEFAULT 0,
			reporting_currency TEXT NOT NULL,
			reporting_net REAL NOT NULL,
			reporting_vat REAL NOT NULL,
			reporting_gross REAL NOT NULL,
			exchange_rate REAL NOT NULL,
			rate_date TEXT NOT NULL,
			vehicle_id TEXT,
			status TEXT NOT NULL,
			dedup_key TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (batch_id) REFERENCES import_batches(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_transactions_company_time ON fuel_transactions(company_id, transaction_time)`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_transactions_batch ON fuel_transactions(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_transactions_status ON fuel_transactions(company_id, status)`,

		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			registration_number TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicles_company ON vehicles(company_id)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			transaction_id TEXT UNIQUE NOT NULL,
			vehicle_id TEXT NOT NULL,
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			occurred_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_company ON expenses(company_id, occurred_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
