package domain

import "time"

type RateKind string

const (
	RateIdentity RateKind = "identity"
	RateExact    RateKind = "exact"
	RateClosest  RateKind = "closest"
	RateEarliest RateKind = "earliest"
	RateLatest   RateKind = "latest"
	RateCached   RateKind = "cached"
	RateFallback RateKind = "fallback"
)

// ExchangeRateSnapshot is the rate applied for one currency on one day.
// Rate is expressed as units of Currency per one unit of the reporting currency.
type ExchangeRateSnapshot struct {
	Currency      string    `json:"currency"`
	RequestedDate time.Time `json:"requested_date"`
	Rate          float64   `json:"rate"`
	RateDate      string    `json:"rate_date"`
	Kind          RateKind  `json:"kind"`
}

type VatProfile struct {
	Country    string  `json:"country"`
	Name       string  `json:"name"`
	Rate       float64 `json:"rate"`
	Refundable bool    `json:"refundable"`
}
