package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const transactionColumns = `id, company_id, batch_id, provider, transaction_time,
	vehicle_raw, vehicle_key, card_number, reference, product, quantity, unit,
	country, currency, net_amount, vat_amount, gross_amount, vat_rate,
	vat_refundable, vat_strategy, needs_review, reporting_currency, reporting_net,
	reporting_vat, reporting_gross, exchange_rate, rate_date, vehicle_id, status,
	dedup_key, created_at`

// BulkInsert writes txns in a single database transaction and returns how
// many rows were stored. Either the whole slice is stored or none of it.
func (r *TransactionRepo) BulkInsert(txns []domain.NormalizedTransaction) (int, error) {
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(
		`INSERT INTO fuel_transactions (` + transactionColumns + `)
		VALUES (` + placeholders(31) + `)`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range txns {
		t := &txns[i]
		var quantity, vehicleID any
		if t.Quantity != nil {
			quantity = *t.Quantity
		}
		if t.VehicleID != nil {
			vehicleID = *t.VehicleID
		}
		res, err := stmt.Exec(
			t.ID, t.CompanyID, t.BatchID, string(t.Provider), formatTime(t.Time),
			t.VehicleRaw, t.VehicleKey, t.CardNumber, t.Reference, t.Product, quantity, t.Unit,
			t.Country, t.Currency, t.Net, t.VAT, t.Gross, t.VATRate,
			boolToInt(t.VATRefundable), t.VATStrategy, boolToInt(t.NeedsReview), t.ReportingCurrency, t.ReportingNet,
			t.ReportingVAT, t.ReportingGross, t.ExchangeRate, t.RateDate, vehicleID, string(t.Status),
			t.DedupKey, formatTime(t.CreatedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// DedupKeys returns the dedup keys of a company's transactions dated within
// [from, to]. Keys are rebuilt from the stored columns.
func (r *TransactionRepo) DedupKeys(companyID string, from, to time.Time) (map[string]struct{}, error) {
	rows, err := r.db.Query(
		`SELECT transaction_time, vehicle_key, net_amount FROM fuel_transactions
		WHERE company_id = ? AND transaction_time >= ? AND transaction_time <= ?`,
		companyID, formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query dedup keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var ts, vehicleKey string
		var net float64
		if err := rows.Scan(&ts, &vehicleKey, &net); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		keys[domain.DedupKey(parseTime(ts), vehicleKey, net)] = struct{}{}
	}
	return keys, rows.Err()
}

func (r *TransactionRepo) Get(companyID, id string) (*domain.NormalizedTransaction, error) {
	row := r.db.QueryRow(
		"SELECT "+transactionColumns+" FROM fuel_transactions WHERE company_id = ? AND id = ?",
		companyID, id,
	)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

type TransactionFilter struct {
	CompanyID   string
	BatchID     string
	Status      string
	VehicleID   string
	NeedsReview *bool
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

func (r *TransactionRepo) List(f TransactionFilter) ([]domain.NormalizedTransaction, int, error) {
	where, args := buildTransactionWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM fuel_transactions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT " + transactionColumns + " FROM fuel_transactions" + where +
		" ORDER BY transaction_time, id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var txns []domain.NormalizedTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, total, rows.Err()
}

// UpdateStatus moves a transaction to status only if its current status is
// one of from. It returns ErrNotFound when no row qualified.
func (r *TransactionRepo) UpdateStatus(companyID, id string, from []domain.TransactionStatus, to domain.TransactionStatus, vehicleID *string) error {
	args := []any{string(to)}
	set := "status = ?"
	if vehicleID != nil {
		set += ", vehicle_id = ?"
		args = append(args, *vehicleID)
	}
	args = append(args, companyID, id)
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := r.db.Exec(
		"UPDATE fuel_transactions SET "+set+" WHERE company_id = ? AND id = ? AND status IN ("+placeholders(len(from))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// BatchStats summarises the rows actually stored for a batch.
type BatchStats struct {
	Total       int
	Matched     int
	Unmatched   int
	TotalAmount float64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

func (r *TransactionRepo) BatchStats(batchID string) (*BatchStats, error) {
	var s BatchStats
	var start, end sql.NullString
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'matched' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'unmatched' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(reporting_gross), 0),
			MIN(transaction_time),
			MAX(transaction_time)
		FROM fuel_transactions WHERE batch_id = ?
	`, batchID).Scan(&s.Total, &s.Matched, &s.Unmatched, &s.TotalAmount, &start, &end)
	if err != nil {
		return nil, fmt.Errorf("batch stats: %w", err)
	}
	s.PeriodStart = parseNullableTime(start)
	s.PeriodEnd = parseNullableTime(end)
	return &s, nil
}

// --- helpers ---

func buildTransactionWhere(f TransactionFilter) (string, []any) {
	clauses := []string{"company_id = ?"}
	args := []any{f.CompanyID}

	if f.BatchID != "" {
		clauses = append(clauses, "batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.VehicleID != "" {
		clauses = append(clauses, "vehicle_id = ?")
		args = append(args, f.VehicleID)
	}
	if f.NeedsReview != nil {
		clauses = append(clauses, "needs_review = ?")
		args = append(args, boolToInt(*f.NeedsReview))
	}
	if f.From != nil {
		clauses = append(clauses, "transaction_time >= ?")
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "transaction_time <= ?")
		args = append(args, formatTime(*f.To))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanTransaction(s scanner) (*domain.NormalizedTransaction, error) {
	var t domain.NormalizedTransaction
	var provider, ts, status, createdAt string
	var card, ref, product, unit, country, strategy sql.NullString
	var quantity sql.NullFloat64
	var vehicleID sql.NullString
	var refundable, review int

	err := s.Scan(
		&t.ID, &t.CompanyID, &t.BatchID, &provider, &ts,
		&t.VehicleRaw, &t.VehicleKey, &card, &ref, &product, &quantity, &unit,
		&country, &t.Currency, &t.Net, &t.VAT, &t.Gross, &t.VATRate,
		&refundable, &strategy, &review, &t.ReportingCurrency, &t.ReportingNet,
		&t.ReportingVAT, &t.ReportingGross, &t.ExchangeRate, &t.RateDate, &vehicleID, &status,
		&t.DedupKey, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.Provider = domain.Provider(provider)
	t.Time = parseTime(ts)
	t.CardNumber = card.String
	t.Reference = ref.String
	t.Product = product.String
	t.Unit = unit.String
	t.Country = country.String
	t.VATStrategy = strategy.String
	t.VATRefundable = refundable == 1
	t.NeedsReview = review == 1
	t.Status = domain.TransactionStatus(status)
	t.CreatedAt = parseTime(createdAt)
	if quantity.Valid {
		q := quantity.Float64
		t.Quantity = &q
	}
	if vehicleID.Valid {
		v := vehicleID.String
		t.VehicleID = &v
	}
	return &t, nil
}
