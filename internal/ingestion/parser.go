package ingestion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/locale"
)

// maxWarnings bounds the warnings kept in Metadata; Skipped keeps counting.
const maxWarnings = 50

// Parser turns one provider file into normalized transactions.
type Parser interface {
	Provider() domain.Provider
	Parse(ctx context.Context, data []byte) (*ParseResult, error)
}

type ParseResult struct {
	Transactions []domain.NormalizedTransaction `json:"transactions"`
	Metadata     Metadata                       `json:"metadata"`
}

type Metadata struct {
	Total          int       `json:"total"`
	TotalReporting float64   `json:"total_reporting"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	Vehicles       []string  `json:"vehicles"`
	Skipped        int       `json:"skipped"`
	Warnings       []string  `json:"warnings,omitempty"`
	Layout         string    `json:"layout,omitempty"`
}

// rawTxn is a source row after field extraction and before VAT derivation
// and conversion. Nil amounts were absent or unparseable.
type rawTxn struct {
	Time            time.Time
	Vehicle         string
	Card            string
	Reference       string
	Product         string
	Quantity        *float64
	Unit            string
	Country         string
	PaymentCurrency string
	Net             *float64
	Gross           *float64
	VAT             *float64
	VATRate         *float64
}

// normalizer applies the steps shared by every provider: origin currency,
// VAT cascade and conversion to the reporting currency.
type normalizer struct {
	provider domain.Provider
	conv     currency.Converter
	cascade  []currency.VATStrategy
	log      zerolog.Logger

	txns     []domain.NormalizedTransaction
	skipped  int
	warnings []string
}

func newNormalizer(provider domain.Provider, conv currency.Converter, cascade []currency.VATStrategy, log zerolog.Logger) *normalizer {
	return &normalizer{provider: provider, conv: conv, cascade: cascade, log: log}
}

// skip records a row that could not be used.
func (n *normalizer) skip(where string, format string, args ...any) {
	n.skipped++
	msg := where + ": " + fmt.Sprintf(format, args...)
	n.log.Warn().Str("provider", string(n.provider)).Msg("skipped " + msg)
	if len(n.warnings) < maxWarnings {
		n.warnings = append(n.warnings, msg)
	}
}

// originCurrency is the currency of the country where the purchase
// happened. The payment currency column is a billing currency and only
// counts when the country is unknown.
func (n *normalizer) originCurrency(r rawTxn) string {
	if cur, ok := currency.CurrencyOf(r.Country); ok {
		return cur
	}
	if r.PaymentCurrency != "" {
		return r.PaymentCurrency
	}
	return n.conv.ReportingCurrency()
}

func (n *normalizer) add(ctx context.Context, where string, r rawTxn) {
	t, err := n.normalize(ctx, r)
	if err != nil {
		n.skip(where, "%v", err)
		return
	}
	n.txns = append(n.txns, t)
}

func (n *normalizer) normalize(ctx context.Context, r rawTxn) (domain.NormalizedTransaction, error) {
	profile := n.conv.VatProfile(r.Country)
	rate := profile.Rate
	if r.VATRate != nil && *r.VATRate > 0 {
		rate = *r.VATRate
	}

	res, ok := currency.DeriveVAT(currency.VATInput{Net: r.Net, Gross: r.Gross, VAT: r.VAT, Rate: rate}, n.cascade)
	if !ok {
		return domain.NormalizedTransaction{}, fmt.Errorf("no usable amount")
	}

	cur := n.originCurrency(r)
	conv, err := n.conv.Convert(ctx, res.Net, cur, r.Time)
	if err != nil {
		return domain.NormalizedTransaction{}, fmt.Errorf("convert %s: %w", cur, err)
	}
	repNet := conv.Amount
	repVAT := currency.Round2(res.VAT / conv.Rate)
	repNet, repVAT, repGross := currency.Reconcile(repNet, repVAT, currency.Round2(res.Gross/conv.Rate))

	key := domain.RegistrationKey(r.Vehicle)
	return domain.NormalizedTransaction{
		Provider:          n.provider,
		Time:              r.Time,
		VehicleRaw:        r.Vehicle,
		VehicleKey:        key,
		CardNumber:        r.Card,
		Reference:         r.Reference,
		Product:           r.Product,
		Quantity:          r.Quantity,
		Unit:              r.Unit,
		Country:           r.Country,
		Currency:          cur,
		Net:               res.Net,
		VAT:               res.VAT,
		Gross:             res.Gross,
		VATRate:           rate,
		VATRefundable:     profile.Refundable,
		VATStrategy:       res.Strategy,
		NeedsReview:       res.NeedsReview,
		ReportingCurrency: n.conv.ReportingCurrency(),
		ReportingNet:      repNet,
		ReportingVAT:      repVAT,
		ReportingGross:    repGross,
		ExchangeRate:      conv.Rate,
		RateDate:          conv.RateDate,
		Status:            domain.StatusPending,
		DedupKey:          domain.DedupKey(r.Time, key, res.Net),
	}, nil
}

func (n *normalizer) result(layout string) *ParseResult {
	return &ParseResult{
		Transactions: n.txns,
		Metadata:     summarize(n.txns, n.skipped, n.warnings, layout),
	}
}

func summarize(txns []domain.NormalizedTransaction, skipped int, warnings []string, layout string) Metadata {
	m := Metadata{Total: len(txns), Skipped: skipped, Warnings: warnings, Layout: layout}
	seen := make(map[string]bool)
	total := 0.0
	for i, t := range txns {
		total += t.ReportingGross
		if i == 0 || t.Time.Before(m.PeriodStart) {
			m.PeriodStart = t.Time
		}
		if i == 0 || t.Time.After(m.PeriodEnd) {
			m.PeriodEnd = t.Time
		}
		if t.VehicleRaw != "" && !seen[t.VehicleKey] {
			seen[t.VehicleKey] = true
			m.Vehicles = append(m.Vehicles, t.VehicleRaw)
		}
	}
	sort.Strings(m.Vehicles)
	m.TotalReporting = currency.Round2(total)
	return m
}

func parseAmount(s string) *float64 {
	if s == "" {
		return nil
	}
	v, ok := locale.ParseNumber(s)
	if !ok {
		return nil
	}
	return &v
}
