package ingestion

import (
	"regexp"
	"strings"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/locale"
)

// lineInvoice reads invoices with one self-contained transaction per line:
//
//	05/03/24 1422 B16TFL HU M1 Budapest - Tatabanya 12.50 3.38 15.88 HUF
type lineInvoice struct{}

var invoiceLine = regexp.MustCompile(`^(\d{2}/\d{2}/\d{2})\s+(\d{4}|\d{1,2}:\d{2})\s+(\S+)\s+([A-Z]{2})\s+(.+?)\s+(-?[\d.,]+)\s+(-?[\d.,]+)\s+(-?[\d.,]+)(?:\s+([A-Z]{3}))?$`)

func (lineInvoice) Name() string { return "line_invoice" }

func (lineInvoice) Detect(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "invoice no") || strings.Contains(lower, "invoice number")
}

func (lineInvoice) TryParse(text string) LayoutResult {
	var res LayoutResult
	for i, line := range strings.Split(text, "\n") {
		m := invoiceLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		ts, ok := locale.ParseDate(m[1] + " " + m[2])
		if !ok {
			res.skip(i+1, "unparseable date %q", m[1]+" "+m[2])
			continue
		}
		net, vat, gross := parseAmount(m[6]), parseAmount(m[7]), parseAmount(m[8])
		if net == nil && gross == nil {
			res.skip(i+1, "unparseable amount %q", m[6])
			continue
		}

		r := rawTxn{
			Time:            ts,
			Vehicle:         m[3],
			Product:         m[5],
			Net:             net,
			VAT:             vat,
			Gross:           gross,
			PaymentCurrency: m[9],
		}
		if code, ok := currency.CountryCode(m[4]); ok {
			r.Country = code
		}
		res.Rows = append(res.Rows, r)
	}
	return res
}
