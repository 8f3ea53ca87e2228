package currency

// fallbackPerEUR holds approximate units per one EUR, used only when the
// rate feed cannot be reached and nothing is cached.
var fallbackPerEUR = map[string]float64{
	"EUR": 1,
	"RON": 4.97,
	"BGN": 1.9558,
	"PLN": 4.30,
	"HUF": 395.0,
	"CZK": 25.2,
	"DKK": 7.46,
	"SEK": 11.4,
	"NOK": 11.7,
	"CHF": 0.95,
	"GBP": 0.85,
	"USD": 1.08,
	"RSD": 117.2,
	"TRY": 35.0,
	"UAH": 44.5,
	"MDL": 19.3,
	"MKD": 61.5,
	"BAM": 1.9558,
	"ALL": 100.0,
}

// fallbackRate returns units of cur per one unit of reporting.
func fallbackRate(cur, reporting string) (float64, bool) {
	c, ok := fallbackPerEUR[cur]
	if !ok {
		return 0, false
	}
	r, ok := fallbackPerEUR[reporting]
	if !ok {
		return 0, false
	}
	return c / r, true
}
