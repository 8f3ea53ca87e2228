package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

type BatchRepo struct {
	db *sql.DB
}

func NewBatchRepo(db *sql.DB) *BatchRepo {
	return &BatchRepo{db: db}
}

const batchColumns = `id, company_id, provider, file_name, total_transactions,
	matched_transactions, unmatched_transactions, skipped_rows, total_amount,
	currency, period_start, period_end, status, imported_by, created_at`

func (r *BatchRepo) Insert(b *domain.ImportBatch) error {
	_, err := r.db.Exec(
		`INSERT INTO import_batches (`+batchColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.CompanyID, string(b.Provider), b.FileName, b.TotalTransactions,
		b.MatchedTransactions, b.UnmatchedTransactions, b.SkippedRows, b.TotalAmount,
		b.Currency, formatNullableTime(b.PeriodStart), formatNullableTime(b.PeriodEnd),
		string(b.Status), b.ImportedBy, formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// Finalize writes the counts and status computed after persistence.
func (r *BatchRepo) Finalize(b *domain.ImportBatch) error {
	res, err := r.db.Exec(
		`UPDATE import_batches SET
			total_transactions = ?, matched_transactions = ?, unmatched_transactions = ?,
			skipped_rows = ?, total_amount = ?, period_start = ?, period_end = ?, status = ?
		WHERE id = ? AND company_id = ?`,
		b.TotalTransactions, b.MatchedTransactions, b.UnmatchedTransactions,
		b.SkippedRows, b.TotalAmount, formatNullableTime(b.PeriodStart),
		formatNullableTime(b.PeriodEnd), string(b.Status), b.ID, b.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("finalize batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BatchRepo) Get(companyID, id string) (*domain.ImportBatch, error) {
	row := r.db.QueryRow(
		"SELECT "+batchColumns+" FROM import_batches WHERE company_id = ? AND id = ?",
		companyID, id,
	)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// List returns a company's batches, newest first.
func (r *BatchRepo) List(companyID string, page, limit int) ([]domain.ImportBatch, int, error) {
	var total int
	if err := r.db.QueryRow(
		"SELECT COUNT(*) FROM import_batches WHERE company_id = ?", companyID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	rows, err := r.db.Query(
		"SELECT "+batchColumns+" FROM import_batches WHERE company_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		companyID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []domain.ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

// Delete removes a batch and its transactions. A batch with any
// transaction in created_expense is refused with ErrBatchHasExpenses.
func (r *BatchRepo) Delete(companyID, id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var promoted int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM fuel_transactions WHERE company_id = ? AND batch_id = ? AND status = ?",
		companyID, id, string(domain.StatusCreatedExpense),
	).Scan(&promoted); err != nil {
		return fmt.Errorf("count promoted transactions: %w", err)
	}
	if promoted > 0 {
		return fmt.Errorf("%w: %d", ErrBatchHasExpenses, promoted)
	}

	if _, err := tx.Exec("DELETE FROM fuel_transactions WHERE company_id = ? AND batch_id = ?", companyID, id); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	res, err := tx.Exec("DELETE FROM import_batches WHERE company_id = ? AND id = ?", companyID, id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (*domain.ImportBatch, error) {
	var b domain.ImportBatch
	var provider, status, createdAt string
	var periodStart, periodEnd, importedBy sql.NullString

	err := s.Scan(
		&b.ID, &b.CompanyID, &provider, &b.FileName, &b.TotalTransactions,
		&b.MatchedTransactions, &b.UnmatchedTransactions, &b.SkippedRows, &b.TotalAmount,
		&b.Currency, &periodStart, &periodEnd, &status, &importedBy, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	b.Provider = domain.Provider(provider)
	b.Status = domain.BatchStatus(status)
	b.PeriodStart = parseNullableTime(periodStart)
	b.PeriodEnd = parseNullableTime(periodEnd)
	b.ImportedBy = importedBy.String
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}
