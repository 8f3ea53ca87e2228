package domain

import (
	"fmt"
	"strings"
	"time"
)

type TransactionStatus string

const (
	StatusPending        TransactionStatus = "pending"
	StatusMatched        TransactionStatus = "matched"
	StatusUnmatched      TransactionStatus = "unmatched"
	StatusIgnored        TransactionStatus = "ignored"
	StatusCreatedExpense TransactionStatus = "created_expense"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TransactionStatus) Terminal() bool {
	return s == StatusIgnored || s == StatusCreatedExpense
}

type Provider string

const (
	ProviderA    Provider = "provider_a"
	ProviderB    Provider = "provider_b"
	ProviderToll Provider = "toll_provider"
)

// ParseProvider accepts the canonical names plus the short aliases used by the CLI.
func ParseProvider(s string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "provider_a", "a", "sheet_a":
		return ProviderA, true
	case "provider_b", "b", "sheet_b":
		return ProviderB, true
	case "toll_provider", "toll", "pdf":
		return ProviderToll, true
	}
	return "", false
}

// RateDateFallback marks amounts converted with the static fallback table.
const RateDateFallback = "fallback"

// NormalizedTransaction is one fuel, toll or service purchase after parsing,
// VAT derivation and conversion to the reporting currency.
type NormalizedTransaction struct {
	ID        string   `json:"id"`
	CompanyID string   `json:"company_id"`
	BatchID   string   `json:"batch_id"`
	Provider  Provider `json:"provider"`

	Time       time.Time `json:"transaction_time"`
	VehicleRaw string    `json:"vehicle_identifier"`
	VehicleKey string    `json:"vehicle_key"`
	CardNumber string    `json:"card_number,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	Product    string    `json:"product"`
	Quantity   *float64  `json:"quantity,omitempty"`
	Unit       string    `json:"unit,omitempty"`

	Country  string  `json:"country"`
	Currency string  `json:"currency"`
	Net      float64 `json:"net_amount"`
	VAT      float64 `json:"vat_amount"`
	Gross    float64 `json:"gross_amount"`

	VATRate       float64 `json:"vat_rate"`
	VATRefundable bool    `json:"vat_refundable"`
	VATStrategy   string  `json:"vat_strategy"`
	NeedsReview   bool    `json:"needs_review"`

	ReportingCurrency string  `json:"reporting_currency"`
	ReportingNet      float64 `json:"reporting_net"`
	ReportingVAT      float64 `json:"reporting_vat"`
	ReportingGross    float64 `json:"reporting_gross"`
	ExchangeRate      float64 `json:"exchange_rate"`
	RateDate          string  `json:"rate_date"`

	VehicleID *string           `json:"vehicle_id,omitempty"`
	Status    TransactionStatus `json:"status"`
	DedupKey  string            `json:"dedup_key"`
	CreatedAt time.Time         `json:"created_at"`
}

// DedupKey identifies a purchase across re-imports: timestamp to the second,
// vehicle match key and original net amount in cents.
func DedupKey(t time.Time, vehicleKey string, net float64) string {
	return fmt.Sprintf("%s|%s|%.2f", t.UTC().Format(time.RFC3339), vehicleKey, net)
}
