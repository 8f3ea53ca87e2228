package currency

import (
	"regexp"
	"strings"

	"github.com/fleetdesk/fuelrecon/internal/locale"
)

type country struct {
	code     string
	iso3     string
	currency string
	vatRate  float64
	eu       bool
	names    []string
}

// countries lists the markets the card and toll providers report. Names
// cover English, Romanian and the local spelling where exports use it.
var countries = []country{
	{"AT", "AUT", "EUR", 20, true, []string{"Austria", "Österreich"}},
	{"BE", "BEL", "EUR", 21, true, []string{"Belgium", "Belgia", "Belgique", "België"}},
	{"BG", "BGR", "BGN", 20, true, []string{"Bulgaria", "България"}},
	{"HR", "HRV", "EUR", 25, true, []string{"Croatia", "Croația", "Hrvatska"}},
	{"CY", "CYP", "EUR", 19, true, []string{"Cyprus", "Cipru"}},
	{"CZ", "CZE", "CZK", 21, true, []string{"Czech Republic", "Czechia", "Cehia", "Republica Cehă", "Česko"}},
	{"DK", "DNK", "DKK", 25, true, []string{"Denmark", "Danemarca", "Danmark"}},
	{"EE", "EST", "EUR", 22, true, []string{"Estonia", "Eesti"}},
	{"FI", "FIN", "EUR", 24, true, []string{"Finland", "Finlanda", "Suomi"}},
	{"FR", "FRA", "EUR", 20, true, []string{"France", "Franța", "Franta"}},
	{"DE", "DEU", "EUR", 19, true, []string{"Germany", "Germania", "Deutschland"}},
	{"GR", "GRC", "EUR", 24, true, []string{"Greece", "Grecia", "Hellas"}},
	{"HU", "HUN", "HUF", 27, true, []string{"Hungary", "Ungaria", "Magyarország"}},
	{"IE", "IRL", "EUR", 23, true, []string{"Ireland", "Irlanda"}},
	{"IT", "ITA", "EUR", 22, true, []string{"Italy", "Italia"}},
	{"LV", "LVA", "EUR", 21, true, []string{"Latvia", "Letonia", "Latvija"}},
	{"LT", "LTU", "EUR", 21, true, []string{"Lithuania", "Lituania", "Lietuva"}},
	{"LU", "LUX", "EUR", 17, true, []string{"Luxembourg", "Luxemburg"}},
	{"MT", "MLT", "EUR", 18, true, []string{"Malta"}},
	{"NL", "NLD", "EUR", 21, true, []string{"Netherlands", "Olanda", "Țările de Jos", "Holland", "Nederland"}},
	{"PL", "POL", "PLN", 23, true, []string{"Poland", "Polonia", "Polska"}},
	{"PT", "PRT", "EUR", 23, true, []string{"Portugal", "Portugalia"}},
	{"RO", "ROU", "RON", 19, true, []string{"Romania", "România"}},
	{"SK", "SVK", "EUR", 20, true, []string{"Slovakia", "Slovacia", "Slovensko"}},
	{"SI", "SVN", "EUR", 22, true, []string{"Slovenia", "Slovenija"}},
	{"ES", "ESP", "EUR", 21, true, []string{"Spain", "Spania", "España"}},
	{"SE", "SWE", "SEK", 25, true, []string{"Sweden", "Suedia", "Sverige"}},

	{"CH", "CHE", "CHF", 8.1, false, []string{"Switzerland", "Elveția", "Schweiz", "Suisse"}},
	{"LI", "LIE", "CHF", 8.1, false, []string{"Liechtenstein"}},
	{"NO", "NOR", "NOK", 25, false, []string{"Norway", "Norvegia", "Norge"}},
	{"GB", "GBR", "GBP", 20, false, []string{"United Kingdom", "Marea Britanie", "Great Britain", "Regatul Unit"}},
	{"RS", "SRB", "RSD", 20, false, []string{"Serbia", "Srbija"}},
	{"TR", "TUR", "TRY", 20, false, []string{"Turkey", "Turcia", "Türkiye"}},
	{"UA", "UKR", "UAH", 20, false, []string{"Ukraine", "Ucraina"}},
	{"MD", "MDA", "MDL", 20, false, []string{"Moldova", "Republica Moldova"}},
	{"MK", "MKD", "MKD", 18, false, []string{"North Macedonia", "Macedonia de Nord", "Macedonia"}},
	{"BA", "BIH", "BAM", 17, false, []string{"Bosnia and Herzegovina", "Bosnia și Herțegovina", "Bosnia"}},
	{"ME", "MNE", "EUR", 21, false, []string{"Montenegro", "Muntenegru"}},
	{"AL", "ALB", "ALL", 20, false, []string{"Albania"}},
}

// codeAliases maps non-ISO codes that show up in exports.
var codeAliases = map[string]string{
	"EL": "GR",
	"UK": "GB",
	"D":  "DE",
	"A":  "AT",
}

var (
	byCode = map[string]*country{}
	byName = map[string]string{}

	parenCode = regexp.MustCompile(`\(([A-Za-z]{2,3})\)`)
)

func init() {
	for i := range countries {
		c := &countries[i]
		byCode[c.code] = c
		byName[strings.ToLower(c.iso3)] = c.code
		for _, n := range c.names {
			byName[locale.Fold(n)] = c.code
		}
	}
}

// CountryCode resolves a country name or code ("Germania", "deu", "DE",
// "Germany (DE)") to its ISO 3166-1 alpha-2 code.
func CountryCode(nameOrCode string) (string, bool) {
	folded := locale.Fold(nameOrCode)
	if folded == "" {
		return "", false
	}

	upper := strings.ToUpper(folded)
	if alias, ok := codeAliases[upper]; ok {
		return alias, true
	}
	if _, ok := byCode[upper]; ok {
		return upper, true
	}
	if code, ok := byName[folded]; ok {
		return code, true
	}
	if m := parenCode.FindStringSubmatch(nameOrCode); m != nil {
		return CountryCode(m[1])
	}
	return "", false
}

// CurrencyOf returns the currency used at the point of sale in country.
func CurrencyOf(countryCode string) (string, bool) {
	c, ok := byCode[strings.ToUpper(countryCode)]
	if !ok {
		return "", false
	}
	return c.currency, true
}

// CountryName returns the English display name for an ISO-2 code.
func CountryName(countryCode string) string {
	if c, ok := byCode[strings.ToUpper(countryCode)]; ok {
		return c.names[0]
	}
	return countryCode
}
