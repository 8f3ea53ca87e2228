package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

const companyID = "demo-fleet"

type station struct {
	country  string
	name     string // as the Romanian export spells it
	currency string
	vatRate  float64
	price    float64 // per litre, local currency
}

var stations = []station{
	{"RO", "România", "RON", 19, 7.45},
	{"HU", "Ungaria", "HUF", 27, 640},
	{"DE", "Germania", "EUR", 19, 1.72},
	{"AT", "Austria", "EUR", 20, 1.64},
	{"PL", "Polonia", "PLN", 23, 6.55},
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	// Statement period: March 2024.
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	vehicles := make([]domain.Vehicle, 0, 12)
	for i := 1; i <= 12; i++ {
		vehicles = append(vehicles, domain.Vehicle{
			ID:                 fmt.Sprintf("veh-%03d", i),
			CompanyID:          companyID,
			RegistrationNumber: fmt.Sprintf("B %02d FLT", 10+i),
		})
	}
	writeJSONFile(filepath.Join(baseDir, "vehicles.json"), vehicles)
	fmt.Printf("Generated %d vehicles -> vehicles.json\n", len(vehicles))

	generateProviderACSV(rng, vehicles, start, baseDir)
	generateProviderBXLSX(rng, vehicles, start, baseDir)
	generateTollStatement(rng, vehicles, start, baseDir)

	fmt.Println("Test data generation complete.")
}

// plate renders a registration the way card providers print it: spacing
// and hyphens vary, and 5% of rows name a truck missing from the registry.
func plate(rng *rand.Rand, vehicles []domain.Vehicle) string {
	if rng.Float64() < 0.05 {
		return fmt.Sprintf("CJ %02d UNK", rng.Intn(90)+10)
	}
	reg := vehicles[rng.Intn(len(vehicles))].RegistrationNumber
	switch rng.Intn(3) {
	case 0:
		return strings.ReplaceAll(reg, " ", "")
	case 1:
		return strings.ReplaceAll(reg, " ", "-")
	}
	return reg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// commaDecimal formats v with a comma decimal separator and dot grouping.
func commaDecimal(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func generateProviderACSV(rng *rand.Rand, vehicles []domain.Vehicle, start time.Time, baseDir string) {
	filePath := filepath.Join(baseDir, "provider_a_march.csv")
	f, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	// The portal export opens with a title block above the header row.
	fmt.Fprintln(f, "Raport tranzacții carduri combustibil")
	fmt.Fprintln(f, "Perioada: 01.03.2024 - 31.03.2024")
	fmt.Fprintln(f)

	w := csv.NewWriter(f)
	w.Comma = ';'
	defer w.Flush()

	w.Write([]string{
		"Data și ora", "Nr. înmatriculare", "Număr card", "Produs", "Cantitate",
		"Țara", "Moneda plată", "Valoare netă", "Valoare TVA", "Valoare brută",
	})

	count := 0
	for i := 0; i < 80; i++ {
		st := stations[rng.Intn(len(stations))]
		when := start.Add(time.Duration(rng.Intn(30*24*60)) * time.Minute)

		product, litres := "Motorină", 40+rng.Float64()*360
		if rng.Float64() < 0.15 {
			product, litres = "AdBlue", 10+rng.Float64()*40
		}
		litres = round2(litres)
		net := round2(litres * st.price)
		vat := round2(net * st.vatRate / 100)
		gross := round2(net + vat)

		date := when.Format("02.01.2006 15:04")
		// 3% of rows carry an impossible date and are skipped on import.
		if rng.Float64() < 0.03 {
			date = "31.02.2024 " + when.Format("15:04")
		}
		vatCell, grossCell := commaDecimal(vat), commaDecimal(gross)
		// Some stations report net only.
		if rng.Float64() < 0.05 {
			vatCell, grossCell = "", ""
		}

		w.Write([]string{
			date,
			plate(rng, vehicles),
			fmt.Sprintf("7002%06d", rng.Intn(1000000)),
			product,
			commaDecimal(litres),
			st.name,
			"EUR", // card currency, not the currency the amounts are in
			commaDecimal(net),
			vatCell,
			grossCell,
		})
		count++
	}

	fmt.Printf("Generated %d provider A rows -> provider_a_march.csv\n", count)
}

func generateProviderBXLSX(rng *rand.Rand, vehicles []domain.Vehicle, start time.Time, baseDir string) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []any{
		"Transaction date", "Transaction time", "Plate number", "Card number", "Product name",
		"Quantity", "Country code", "Currency", "Net value", "Gross value",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		panic(err)
	}

	count := 0
	for i := 0; i < 60; i++ {
		st := stations[rng.Intn(len(stations))]
		when := start.Add(time.Duration(rng.Intn(30*24*60)) * time.Minute)
		litres := round2(40 + rng.Float64()*360)
		net := round2(litres * st.price)
		gross := round2(net * (1 + st.vatRate/100))

		// 4% of rows have net and gross swapped by the provider.
		if rng.Float64() < 0.04 {
			net, gross = gross, net
		}

		row := []any{
			when.Format("2006-01-02"),
			when.Format("15:04"),
			plate(rng, vehicles),
			fmt.Sprintf("CARD-%05d", rng.Intn(100000)),
			"Diesel",
			litres,
			st.country,
			st.currency,
			net,
			gross,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			panic(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			panic(err)
		}
		count++
	}

	if err := f.SaveAs(filepath.Join(baseDir, "provider_b_march.xlsx")); err != nil {
		panic(err)
	}
	fmt.Printf("Generated %d provider B rows -> provider_b_march.xlsx\n", count)
}

// generateTollStatement writes the text a toll PDF extracts to in the
// itemised-by-vehicle layout, including the run-together amount columns.
func generateTollStatement(rng *rand.Rand, vehicles []domain.Vehicle, start time.Time, baseDir string) {
	roads := []string{"A3 Nürnberg - Würzburg", "A7 Würzburg - Kassel", "A9 München - Nürnberg", "A6 Heilbronn - Mannheim"}

	var b strings.Builder
	b.WriteString("TOLL STATEMENT - Itemised by vehicle\n")
	b.WriteString("Statement period 01.03.2024 - 31.03.2024\n")

	var vatBase float64
	count := 0
	for _, v := range vehicles[:4] {
		fmt.Fprintf(&b, "Vehicle: %s\n", v.RegistrationNumber)
		for i := 0; i < 5; i++ {
			when := start.Add(time.Duration(rng.Intn(30*24*60)) * time.Minute)
			km := round2(20 + rng.Float64()*180)
			tariff := 0.348
			net := round2(km * tariff)
			fmt.Fprintf(&b, "%s DE %s %s%s%s\n",
				when.Format("02.01.2006 15:04"), roads[rng.Intn(len(roads))],
				commaDecimal(km), commaDecimal(tariff*100), commaDecimal(net))
			vatBase += net
			count++
		}
	}
	b.WriteString("VAT summary by country\n")
	fmt.Fprintf(&b, "DE Germany VAT (19%%) = %s\n", commaDecimal(round2(vatBase*0.19)))

	if err := os.WriteFile(filepath.Join(baseDir, "toll_statement_march.txt"), []byte(b.String()), 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("Generated %d toll lines -> toll_statement_march.txt\n", count)
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
