package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/locale"
)

// groupedLedger reads statements itemised per vehicle:
//
//	Vehicle: B 16 TFL
//	01.03.2024 08:15 DE A3 Nürnberg - Würzburg 48,3338,0610,27
//	...
//	DE Germany VAT (19%) = 12,34
//
// Each transaction line ends in three amounts (distance km, tariff, net)
// that the PDF often prints without separating spaces. VAT comes only from
// the per-country summary and is spread over that country's lines.
type groupedLedger struct{}

var (
	ledgerVehicle = regexp.MustCompile(`(?i)^(?:vehicle|fahrzeug|vehicul|kennzeichen)\s*:\s*(.+?)\s*$`)
	ledgerLine    = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+(\d{1,2}:\d{2})\s+([A-Z]{2})\s+(?:\[([^\]]+)\]\s+)?(.*?)\s*([\d.,\s]+)$`)
	ledgerVAT     = regexp.MustCompile(`^([A-Z]{2})\b.*?(?i:vat|mwst|tva)\s*\(\s*(\d+(?:[.,]\d+)?)\s*%\s*\)\s*[=:]?\s*([\d.,]+)`)

	// decimalAmount matches one amount with a two-digit decimal part,
	// optionally with dot thousands groups.
	decimalAmount = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+,\d{2}|\d+,\d{2}`)

	// ledgerNotVehicle rejects header captures that are subtotal lines
	// rather than registrations.
	ledgerNotVehicle = regexp.MustCompile(`(?i)\b(?:total|subtotal|summe|gesamt)\b|\d,\d{2}\b`)
)

func (groupedLedger) Name() string { return "grouped_ledger" }

func (groupedLedger) Detect(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "itemised by vehicle") ||
		strings.Contains(lower, "itemized by vehicle") ||
		strings.Contains(lower, "vat summary by country")
}

type countryVAT struct {
	rate  float64
	total float64
}

func (groupedLedger) TryParse(text string) LayoutResult {
	var res LayoutResult
	vehicle := ""
	summaries := make(map[string]countryVAT)

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := ledgerVAT.FindStringSubmatch(line); m != nil {
			rate, _ := locale.ParseNumber(m[2])
			total, ok := locale.ParseNumber(m[3])
			if ok {
				summaries[m[1]] = countryVAT{rate: rate, total: total}
			}
			continue
		}
		if m := ledgerVehicle.FindStringSubmatch(line); m != nil {
			if !ledgerNotVehicle.MatchString(m[1]) {
				vehicle = m[1]
			}
			continue
		}

		m := ledgerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ts, ok := locale.ParseDate(m[1] + " " + m[2])
		if !ok {
			res.skip(i+1, "unparseable date %q", m[1]+" "+m[2])
			continue
		}
		amounts := splitAmounts(m[6])
		if len(amounts) < 3 {
			res.skip(i+1, "expected distance, tariff and amount in %q", strings.TrimSpace(m[6]))
			continue
		}
		amounts = amounts[len(amounts)-3:]

		r := rawTxn{
			Time:     ts,
			Vehicle:  vehicle,
			Country:  m[3],
			Product:  strings.TrimSpace("Toll " + m[5]),
			Quantity: &amounts[0],
			Unit:     "km",
			Net:      &amounts[2],
		}
		if m[4] != "" {
			r.Vehicle = m[4]
		}
		res.Rows = append(res.Rows, r)
	}

	distributeCountryVAT(res.Rows, summaries)
	return res
}

// splitAmounts scans blob left to right for decimal amounts, so
// "48,3338,0610,27" yields 48.33, 38.06 and 10.27.
func splitAmounts(blob string) []float64 {
	var out []float64
	for _, s := range decimalAmount.FindAllString(blob, -1) {
		if v, ok := locale.ParseNumber(s); ok {
			out = append(out, v)
		}
	}
	return out
}

// distributeCountryVAT assigns each country's stated VAT total to its rows
// in proportion to their net amounts.
func distributeCountryVAT(rows []rawTxn, summaries map[string]countryVAT) {
	byCountry := make(map[string][]int)
	for i, r := range rows {
		byCountry[r.Country] = append(byCountry[r.Country], i)
	}
	for country, idx := range byCountry {
		s, ok := summaries[country]
		if !ok {
			continue
		}
		weights := make([]float64, len(idx))
		for j, i := range idx {
			weights[j] = *rows[i].Net
		}
		shares := currency.DistributeVAT(s.total, weights)
		for j, i := range idx {
			vat := shares[j]
			rate := s.rate
			rows[i].VAT = &vat
			rows[i].VATRate = &rate
		}
	}
}

func (r *LayoutResult) skip(line int, format string, args ...any) {
	r.Skipped++
	if len(r.Warnings) < maxWarnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf("line %d: ", line)+fmt.Sprintf(format, args...))
	}
}
