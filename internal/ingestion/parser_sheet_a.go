package ingestion

import (
	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/columns"
	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// NewSheetAParser parses the first card provider's CSV/XLSX export: a
// combined date-time column, optional VAT and rate columns and a payment
// currency that is usually the billing currency rather than the currency
// of the purchase.
func NewSheetAParser(table *columns.FieldTable, conv currency.Converter, log zerolog.Logger) Parser {
	return &sheetParser{
		provider:    domain.ProviderA,
		table:       table,
		cascade:     currency.DefaultCascade,
		currencyCol: "payment_currency",
		timeOf:      combinedTime("transaction_time"),
		conv:        conv,
		log:         log,
	}
}
