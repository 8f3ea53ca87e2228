package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/columns"
	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/locale"
)

// sheetParser is the row loop shared by the spreadsheet providers. The
// provider files supply the field table, time extraction and VAT cascade.
type sheetParser struct {
	provider    domain.Provider
	table       *columns.FieldTable
	cascade     []currency.VATStrategy
	currencyCol string
	timeOf      func(m columns.Mapping, row []string) (time.Time, string, bool)
	conv        currency.Converter
	log         zerolog.Logger
}

func (p *sheetParser) Provider() domain.Provider { return p.provider }

func (p *sheetParser) Parse(ctx context.Context, data []byte) (*ParseResult, error) {
	rows, err := readSheet(data)
	if err != nil {
		return nil, err
	}

	headerIdx, mapping := locateHeader(rows, p.table)
	if missing := mapping.Missing(p.table.Required); headerIdx < 0 || len(missing) > 0 {
		if headerIdx < 0 {
			missing = p.table.Required
		}
		return nil, &MissingColumnsError{Provider: string(p.provider), Missing: missing}
	}

	n := newNormalizer(p.provider, p.conv, p.cascade, p.log)
	for i := headerIdx + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := rows[i]
		if blankRow(row) {
			continue
		}
		where := fmt.Sprintf("row %d", i+1)

		ts, rawTime, ok := p.timeOf(mapping, row)
		if !ok {
			n.skip(where, "unparseable date %q", rawTime)
			continue
		}

		r := rawTxn{
			Time:            ts,
			Vehicle:         mapping.Value(row, "vehicle_registration"),
			Card:            mapping.Value(row, "card_number"),
			Reference:       mapping.Value(row, "reference"),
			Product:         mapping.Value(row, "product"),
			Quantity:        parseAmount(mapping.Value(row, "quantity")),
			Unit:            mapping.Value(row, "unit"),
			PaymentCurrency: strings.ToUpper(mapping.Value(row, p.currencyCol)),
			Net:             parseAmount(mapping.Value(row, "net_amount")),
			Gross:           parseAmount(mapping.Value(row, "gross_amount")),
			VAT:             parseAmount(mapping.Value(row, "vat_amount")),
			VATRate:         parseAmount(mapping.Value(row, "vat_rate")),
		}
		if r.Net == nil && r.Gross == nil {
			n.skip(where, "unparseable amount %q", mapping.Value(row, "net_amount"))
			continue
		}
		if code, ok := currency.CountryCode(mapping.Value(row, "country")); ok {
			r.Country = code
		}

		n.add(ctx, where, r)
	}

	return n.result(""), nil
}

// combinedTime reads a single date-and-time column.
func combinedTime(field string) func(columns.Mapping, []string) (time.Time, string, bool) {
	return func(m columns.Mapping, row []string) (time.Time, string, bool) {
		raw := m.Value(row, field)
		t, ok := locale.ParseDate(raw)
		return t, raw, ok
	}
}

// splitTime joins a date column with an optional time-of-day column.
func splitTime(dateField, clockField string) func(columns.Mapping, []string) (time.Time, string, bool) {
	return func(m columns.Mapping, row []string) (time.Time, string, bool) {
		raw := m.Value(row, dateField)
		if clock := m.Value(row, clockField); clock != "" && !strings.Contains(raw, ":") {
			raw += " " + clock
		}
		t, ok := locale.ParseDate(raw)
		return t, raw, ok
	}
}
