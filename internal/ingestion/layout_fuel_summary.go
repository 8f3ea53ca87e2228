package ingestion

import (
	"regexp"
	"strings"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/locale"
)

// fuelSummary reads fuel purchase reports grouped by country:
//
//	Country: Germany (DE)          Net 200,00  VAT 38,00  Gross 238,00
//	Vehicle: B 16 TFL   Card: 7002 1234 5678
//	05.03.2024 14:22 Diesel 120,50 L 1,58 190,39 36,17 226,56
//
// Product lines carry quantity, unit, unit price, net, VAT and gross.
type fuelSummary struct{}

var (
	summaryCountry = regexp.MustCompile(`(?i)^(?:country|țara|tara|land)\s*:\s*(.+?)(?:\s{2,}.*)?$`)
	summaryVehicle = regexp.MustCompile(`(?i)^(?:vehicle|vehicul|fahrzeug)\s*:\s*(.+?)(?:\s+card\s*:\s*(.+?))?\s*$`)
	summaryProduct = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+(\d{1,2}:\d{2})\s+(.+?)\s+(-?[\d.,]+)\s+(l|L|kg|KG|pcs|buc)\s+(-?[\d.,]+)\s+(-?[\d.,]+)\s+(-?[\d.,]+)\s+(-?[\d.,]+)$`)
)

func (fuelSummary) Name() string { return "fuel_summary" }

func (fuelSummary) Detect(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "summary by country") || strings.Contains(lower, "fuel purchase")
}

func (fuelSummary) TryParse(text string) LayoutResult {
	var res LayoutResult
	country, vehicle, card := "", "", ""

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := summaryCountry.FindStringSubmatch(line); m != nil {
			if code, ok := currency.CountryCode(m[1]); ok {
				country = code
			} else {
				country = ""
				res.skip(i+1, "unknown country %q", m[1])
			}
			vehicle, card = "", ""
			continue
		}
		if m := summaryVehicle.FindStringSubmatch(line); m != nil {
			vehicle, card = m[1], m[2]
			continue
		}

		m := summaryProduct.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ts, ok := locale.ParseDate(m[1] + " " + m[2])
		if !ok {
			res.skip(i+1, "unparseable date %q", m[1]+" "+m[2])
			continue
		}
		net, gross, vat := parseAmount(m[7]), parseAmount(m[9]), parseAmount(m[8])
		if net == nil && gross == nil {
			res.skip(i+1, "unparseable amount %q", m[7])
			continue
		}

		res.Rows = append(res.Rows, rawTxn{
			Time:     ts,
			Vehicle:  vehicle,
			Card:     card,
			Product:  m[3],
			Quantity: parseAmount(m[4]),
			Unit:     strings.ToUpper(m[5]),
			Country:  country,
			Net:      net,
			VAT:      vat,
			Gross:    gross,
		})
	}
	return res
}
