package ingestion

import (
	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/columns"
	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// NewSheetBParser parses the second card provider's export. Date and time
// are separate columns and both net and gross are always present, so VAT
// is their difference; rows with the two swapped are corrected and flagged.
func NewSheetBParser(table *columns.FieldTable, conv currency.Converter, log zerolog.Logger) Parser {
	return &sheetParser{
		provider:    domain.ProviderB,
		table:       table,
		cascade:     currency.GrossNetCascade,
		currencyCol: "currency",
		timeOf:      splitTime("transaction_date", "transaction_clock"),
		conv:        conv,
		log:         log,
	}
}
