// Package ledger applies bulk state changes to imported transactions: manual
// vehicle assignment, ignoring, and promotion to expenses.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/logger"
	"github.com/fleetdesk/fuelrecon/internal/repository"
)

// ErrUnknownVehicle is returned by Match when the target vehicle does not
// belong to the company.
var ErrUnknownVehicle = errors.New("vehicle not found")

type TransactionStore interface {
	Get(companyID, id string) (*domain.NormalizedTransaction, error)
	UpdateStatus(companyID, id string, from []domain.TransactionStatus, to domain.TransactionStatus, vehicleID *string) error
}

type ExpenseStore interface {
	InsertWithTransition(e *domain.Expense) error
}

type VehicleChecker interface {
	Exists(companyID, id string) (bool, error)
}

// OpResult reports the outcome for one transaction of a bulk request.
type OpResult struct {
	ID        string `json:"id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ExpenseID string `json:"expense_id,omitempty"`
}

// Summary counts the outcomes of a bulk request.
type Summary struct {
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Results   []OpResult `json:"results"`
}

var (
	matchFrom   = []domain.TransactionStatus{domain.StatusPending, domain.StatusUnmatched, domain.StatusMatched}
	ignoreFrom  = []domain.TransactionStatus{domain.StatusPending, domain.StatusUnmatched, domain.StatusMatched}
	expenseFrom = []domain.TransactionStatus{domain.StatusMatched}
)

type Service struct {
	txns     TransactionStore
	expenses ExpenseStore
	vehicles VehicleChecker
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(txns TransactionStore, expenses ExpenseStore, vehicles VehicleChecker, log zerolog.Logger) *Service {
	return &Service{
		txns:     txns,
		expenses: expenses,
		vehicles: vehicles,
		now:      time.Now,
		log:      log,
	}
}

// Match assigns vehicleID to every listed transaction and marks it matched.
func (s *Service) Match(ctx context.Context, companyID string, ids []string, vehicleID string) (*Summary, error) {
	ok, err := s.vehicles.Exists(companyID, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("check vehicle %s: %w", vehicleID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVehicle, vehicleID)
	}

	sum := s.apply(ctx, companyID, ids, "match", matchFrom, func(t *domain.NormalizedTransaction) (OpResult, error) {
		vid := vehicleID
		err := s.txns.UpdateStatus(companyID, t.ID, matchFrom, domain.StatusMatched, &vid)
		return OpResult{ID: t.ID}, err
	})
	return sum, nil
}

// Ignore marks the listed transactions as ignored. Ignored transactions never
// become expenses.
func (s *Service) Ignore(ctx context.Context, companyID string, ids []string) (*Summary, error) {
	sum := s.apply(ctx, companyID, ids, "ignore", ignoreFrom, func(t *domain.NormalizedTransaction) (OpResult, error) {
		err := s.txns.UpdateStatus(companyID, t.ID, ignoreFrom, domain.StatusIgnored, nil)
		return OpResult{ID: t.ID}, err
	})
	return sum, nil
}

// CreateExpenses emits one expense per matched transaction and moves it to
// created_expense.
func (s *Service) CreateExpenses(ctx context.Context, companyID string, ids []string) (*Summary, error) {
	sum := s.apply(ctx, companyID, ids, "create expense for", expenseFrom, func(t *domain.NormalizedTransaction) (OpResult, error) {
		e := ExpenseFor(t, s.now().UTC())
		e.ID = uuid.NewString()
		if err := s.expenses.InsertWithTransition(e); err != nil {
			return OpResult{ID: t.ID}, err
		}
		return OpResult{ID: t.ID, ExpenseID: e.ID}, nil
	})
	return sum, nil
}

// apply loads each transaction, checks that its status allows the operation
// and runs fn. The store repeats the status check so a concurrent change
// surfaces as a per-item failure.
func (s *Service) apply(ctx context.Context, companyID string, ids []string, verb string, from []domain.TransactionStatus,
	fn func(t *domain.NormalizedTransaction) (OpResult, error)) *Summary {
	sum := &Summary{Results: make([]OpResult, 0, len(ids))}
	seen := make(map[string]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		res := s.applyOne(ctx, companyID, id, verb, from, fn)
		if res.OK {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
		sum.Results = append(sum.Results, res)
	}

	log := logger.FromContextOr(ctx, s.log)
	log.Info().
		Str("company_id", companyID).
		Str("op", verb).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Msg("bulk operation finished")
	return sum
}

func (s *Service) applyOne(ctx context.Context, companyID, id, verb string, from []domain.TransactionStatus,
	fn func(t *domain.NormalizedTransaction) (OpResult, error)) OpResult {
	if err := ctx.Err(); err != nil {
		return OpResult{ID: id, Error: err.Error()}
	}
	log := logger.FromContextOr(ctx, s.log)

	t, err := s.txns.Get(companyID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return OpResult{ID: id, Error: "transaction not found"}
	}
	if err != nil {
		log.Error().Err(err).Str("transaction_id", id).Msg("load transaction")
		return OpResult{ID: id, Error: "internal error"}
	}
	if !allowed(t.Status, from) {
		return OpResult{ID: id, Error: fmt.Sprintf("cannot %s a transaction in status %s", verb, t.Status)}
	}

	res, err := fn(t)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		res.Error = "transaction changed concurrently"
	case err != nil:
		log.Error().Err(err).Str("transaction_id", id).Str("op", verb).Msg("bulk item failed")
		res.Error = "internal error"
	default:
		res.OK = true
	}
	return res
}

func allowed(s domain.TransactionStatus, from []domain.TransactionStatus) bool {
	for _, f := range from {
		if s == f {
			return true
		}
	}
	return false
}

// ExpenseFor builds the expense recorded for t. Refundable VAT is reclaimed,
// so only the net amount is a cost; otherwise the gross amount is.
func ExpenseFor(t *domain.NormalizedTransaction, now time.Time) *domain.Expense {
	amount := t.ReportingGross
	if t.VATRefundable {
		amount = t.ReportingNet
	}
	vehicleID := ""
	if t.VehicleID != nil {
		vehicleID = *t.VehicleID
	}
	desc := strings.TrimSpace(t.Product)
	if t.Country != "" {
		desc = strings.TrimSpace(desc + " " + currency.CountryName(t.Country))
	}
	return &domain.Expense{
		CompanyID:     t.CompanyID,
		TransactionID: t.ID,
		VehicleID:     vehicleID,
		Amount:        amount,
		Currency:      t.ReportingCurrency,
		Category:      Category(t),
		Description:   desc,
		OccurredAt:    t.Time,
		CreatedAt:     now,
	}
}

// Category guesses the expense category from the provider and product name.
func Category(t *domain.NormalizedTransaction) string {
	p := strings.ToLower(t.Product)
	switch {
	case strings.Contains(p, "adblue"), strings.Contains(p, "def "), strings.Contains(p, "uree"):
		return "adblue"
	case t.Provider == domain.ProviderToll,
		strings.Contains(p, "toll"), strings.Contains(p, "maut"),
		strings.Contains(p, "rovinieta"), strings.Contains(p, "peaj"), strings.Contains(p, "vignette"):
		return "toll"
	}
	return "fuel"
}
