package domain

import (
	"strings"
	"time"
)

type Vehicle struct {
	ID                 string `json:"id"`
	CompanyID          string `json:"company_id"`
	RegistrationNumber string `json:"registration_number"`
}

// RegistrationKey strips spaces, hyphens, underscores and dots and upper-cases
// the rest, so "b-16 tfl" and "B16TFL" compare equal.
func RegistrationKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '-', '_', '.', '\u00a0':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// Expense is the financial record emitted when a matched transaction is
// promoted to the general ledger.
type Expense struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	TransactionID string    `json:"transaction_id"`
	VehicleID     string    `json:"vehicle_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	OccurredAt    time.Time `json:"occurred_at"`
	CreatedAt     time.Time `json:"created_at"`
}
