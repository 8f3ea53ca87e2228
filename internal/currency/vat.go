package currency

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// Tolerance is the largest accepted gap between gross and net+vat.
const Tolerance = 0.02

// defaultProfiles builds the static VAT table. EU members are refundable,
// everyone else is not unless overridden.
func defaultProfiles() map[string]domain.VatProfile {
	out := make(map[string]domain.VatProfile, len(countries))
	for _, c := range countries {
		out[c.code] = domain.VatProfile{
			Country:    c.code,
			Name:       c.names[0],
			Rate:       c.vatRate,
			Refundable: c.eu,
		}
	}
	return out
}

// VATInput carries whatever amounts the source row stated. Nil means the
// field was absent or unparseable.
type VATInput struct {
	Net   *float64
	Gross *float64
	VAT   *float64
	// Rate is the country's standard VAT percentage, 0 when unknown.
	Rate float64
}

// VATResult is a consistent net/vat/gross triple plus the strategy that
// produced it.
type VATResult struct {
	Net         float64
	VAT         float64
	Gross       float64
	Strategy    string
	NeedsReview bool
}

// VATStrategy is one named step of the derivation cascade. Apply reports
// false when the step does not apply to the input.
type VATStrategy struct {
	Name  string
	Apply func(VATInput) (VATResult, bool)
}

var (
	// GrossMinusNet treats the stated gross and net as ground truth when
	// gross exceeds net.
	GrossMinusNet = VATStrategy{
		Name: "gross_minus_net",
		Apply: func(in VATInput) (VATResult, bool) {
			if in.Net == nil || in.Gross == nil || *in.Gross <= *in.Net {
				return VATResult{}, false
			}
			return VATResult{Net: *in.Net, Gross: *in.Gross, VAT: sub(*in.Gross, *in.Net)}, true
		},
	}

	// SourceVAT trusts a VAT amount printed in the source and backfills
	// whichever of net or gross is missing or inconsistent.
	SourceVAT = VATStrategy{
		Name: "source_vat",
		Apply: func(in VATInput) (VATResult, bool) {
			if in.VAT == nil {
				return VATResult{}, false
			}
			switch {
			case in.Net != nil:
				return VATResult{Net: *in.Net, VAT: *in.VAT, Gross: add(*in.Net, *in.VAT)}, true
			case in.Gross != nil:
				return VATResult{Net: sub(*in.Gross, *in.VAT), VAT: *in.VAT, Gross: *in.Gross}, true
			}
			return VATResult{}, false
		},
	}

	// CountryRate applies the country's standard rate to the net amount.
	CountryRate = VATStrategy{
		Name: "country_rate",
		Apply: func(in VATInput) (VATResult, bool) {
			if in.Net == nil || in.Rate <= 0 {
				return VATResult{}, false
			}
			vat := Round2(*in.Net * in.Rate / 100)
			return VATResult{Net: *in.Net, VAT: vat, Gross: add(*in.Net, vat)}, true
		},
	}

	// SwappedGrossNet handles exports where gross and net columns are
	// inverted: the larger value becomes gross and the row is flagged.
	SwappedGrossNet = VATStrategy{
		Name: "swapped_gross_net",
		Apply: func(in VATInput) (VATResult, bool) {
			if in.Net == nil || in.Gross == nil || *in.Gross >= *in.Net {
				return VATResult{}, false
			}
			net, gross := *in.Gross, *in.Net
			return VATResult{Net: net, Gross: gross, VAT: sub(gross, net), NeedsReview: true}, true
		},
	}

	// GrossEqualsNet is a zero-rated purchase in an export that always
	// states both amounts.
	GrossEqualsNet = VATStrategy{
		Name: "gross_equals_net",
		Apply: func(in VATInput) (VATResult, bool) {
			if in.Net == nil || in.Gross == nil || *in.Gross != *in.Net {
				return VATResult{}, false
			}
			return VATResult{Net: *in.Net, Gross: *in.Gross}, true
		},
	}

	// ZeroVAT keeps a row that has an amount but nothing to derive VAT from.
	ZeroVAT = VATStrategy{
		Name: "zero_vat",
		Apply: func(in VATInput) (VATResult, bool) {
			switch {
			case in.Net != nil:
				return VATResult{Net: *in.Net, Gross: *in.Net, NeedsReview: true}, true
			case in.Gross != nil:
				return VATResult{Net: *in.Gross, Gross: *in.Gross, NeedsReview: true}, true
			}
			return VATResult{}, false
		},
	}
)

// DefaultCascade is the order used when the source may omit any field.
var DefaultCascade = []VATStrategy{GrossMinusNet, SourceVAT, CountryRate, SwappedGrossNet, ZeroVAT}

// GrossNetCascade is used for exports that always carry both gross and net.
var GrossNetCascade = []VATStrategy{GrossMinusNet, SwappedGrossNet, GrossEqualsNet}

// DeriveVAT runs the strategies in order and returns the first that applies.
func DeriveVAT(in VATInput, cascade []VATStrategy) (VATResult, bool) {
	for _, s := range cascade {
		res, ok := s.Apply(in)
		if !ok {
			continue
		}
		res.Strategy = s.Name
		res.Net, res.VAT, res.Gross = Reconcile(Round2(res.Net), Round2(res.VAT), Round2(res.Gross))
		return res, true
	}
	return VATResult{}, false
}

// Reconcile returns the triple unchanged when gross matches net+vat within
// Tolerance, otherwise gross is recomputed from net and vat.
func Reconcile(net, vat, gross float64) (float64, float64, float64) {
	if math.Abs(gross-(net+vat)) < Tolerance {
		return net, vat, gross
	}
	return net, vat, add(net, vat)
}

// DistributeVAT splits total across weights proportionally, rounding each
// share to cents. The last share absorbs the rounding remainder so the
// shares always sum to exactly total.
func DistributeVAT(total float64, weights []float64) []float64 {
	if len(weights) == 0 {
		return nil
	}
	t := decimal.NewFromFloat(total).Round(2)

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(decimal.NewFromFloat(w))
	}

	out := make([]float64, len(weights))
	allocated := decimal.Zero
	n := decimal.NewFromInt(int64(len(weights)))
	for i := 0; i < len(weights)-1; i++ {
		var share decimal.Decimal
		if sum.IsZero() {
			share = t.Div(n).Round(2)
		} else {
			share = t.Mul(decimal.NewFromFloat(weights[i])).Div(sum).Round(2)
		}
		allocated = allocated.Add(share)
		out[i] = share.InexactFloat64()
	}
	out[len(out)-1] = t.Sub(allocated).InexactFloat64()
	return out
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

func sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}
