package repository

import (
	"database/sql"
	"fmt"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// ExpenseRepo stores the records handed to the general ledger.
type ExpenseRepo struct {
	db *sql.DB
}

func NewExpenseRepo(db *sql.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

// InsertWithTransition stores the expense and moves its transaction to
// created_expense atomically. ErrNotFound means the transaction was no
// longer matched.
func (r *ExpenseRepo) InsertWithTransition(e *domain.Expense) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"UPDATE fuel_transactions SET status = ? WHERE company_id = ? AND id = ? AND status = ?",
		string(domain.StatusCreatedExpense), e.CompanyID, e.TransactionID, string(domain.StatusMatched),
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(
		`INSERT INTO expenses
		(id, company_id, transaction_id, vehicle_id, amount, currency, category,
		 description, occurred_at, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.CompanyID, e.TransactionID, e.VehicleID, e.Amount, e.Currency,
		e.Category, e.Description, formatTime(e.OccurredAt), formatTime(e.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	return tx.Commit()
}

func (r *ExpenseRepo) ListByCompany(companyID string) ([]domain.Expense, error) {
	rows, err := r.db.Query(
		`SELECT id, company_id, transaction_id, vehicle_id, amount, currency, category,
			description, occurred_at, created_at
		FROM expenses WHERE company_id = ? ORDER BY occurred_at, id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []domain.Expense
	for rows.Next() {
		var e domain.Expense
		var occurred, created string
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.TransactionID, &e.VehicleID, &e.Amount,
			&e.Currency, &e.Category, &e.Description, &occurred, &created); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.OccurredAt = parseTime(occurred)
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
