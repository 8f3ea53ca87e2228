package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestDeriveVAT_DefaultCascade(t *testing.T) {
	tests := []struct {
		name     string
		in       VATInput
		want     VATResult
		strategy string
	}{
		{
			name:     "gross and net present",
			in:       VATInput{Net: ptr(100), Gross: ptr(119), Rate: 19},
			want:     VATResult{Net: 100, VAT: 19, Gross: 119},
			strategy: "gross_minus_net",
		},
		{
			name:     "gross equal to net defers to source vat",
			in:       VATInput{Net: ptr(100), Gross: ptr(100), VAT: ptr(19), Rate: 19},
			want:     VATResult{Net: 100, VAT: 19, Gross: 119},
			strategy: "source_vat",
		},
		{
			name:     "gross equal to net without vat uses country rate",
			in:       VATInput{Net: ptr(50), Gross: ptr(50), Rate: 19},
			want:     VATResult{Net: 50, VAT: 9.5, Gross: 59.5},
			strategy: "country_rate",
		},
		{
			name:     "source vat with net only",
			in:       VATInput{Net: ptr(80), VAT: ptr(16.8), Rate: 21},
			want:     VATResult{Net: 80, VAT: 16.8, Gross: 96.8},
			strategy: "source_vat",
		},
		{
			name:     "source vat with gross only",
			in:       VATInput{Gross: ptr(123), VAT: ptr(23)},
			want:     VATResult{Net: 100, VAT: 23, Gross: 123},
			strategy: "source_vat",
		},
		{
			name:     "country rate",
			in:       VATInput{Net: ptr(10), Rate: 27},
			want:     VATResult{Net: 10, VAT: 2.7, Gross: 12.7},
			strategy: "country_rate",
		},
		{
			name:     "swapped columns",
			in:       VATInput{Net: ptr(121), Gross: ptr(100)},
			want:     VATResult{Net: 100, VAT: 21, Gross: 121, NeedsReview: true},
			strategy: "swapped_gross_net",
		},
		{
			name:     "nothing to derive from",
			in:       VATInput{Gross: ptr(42.5)},
			want:     VATResult{Net: 42.5, VAT: 0, Gross: 42.5, NeedsReview: true},
			strategy: "zero_vat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveVAT(tt.in, DefaultCascade)
			require.True(t, ok)
			assert.Equal(t, tt.strategy, got.Strategy)
			assert.InDelta(t, tt.want.Net, got.Net, 1e-9)
			assert.InDelta(t, tt.want.VAT, got.VAT, 1e-9)
			assert.InDelta(t, tt.want.Gross, got.Gross, 1e-9)
			assert.Equal(t, tt.want.NeedsReview, got.NeedsReview)
		})
	}
}

func TestDeriveVAT_GrossNetCascadeRequiresBoth(t *testing.T) {
	_, ok := DeriveVAT(VATInput{Net: ptr(10), Rate: 19}, GrossNetCascade)
	assert.False(t, ok)

	got, ok := DeriveVAT(VATInput{Net: ptr(119), Gross: ptr(100)}, GrossNetCascade)
	require.True(t, ok)
	assert.Equal(t, "swapped_gross_net", got.Strategy)
	assert.True(t, got.NeedsReview)

	got, ok = DeriveVAT(VATInput{Net: ptr(40), Gross: ptr(40), Rate: 19}, GrossNetCascade)
	require.True(t, ok)
	assert.Equal(t, "gross_equals_net", got.Strategy)
	assert.Equal(t, 0.0, got.VAT)
	assert.Equal(t, 40.0, got.Gross)
}

func TestDeriveVAT_ResultIsConsistent(t *testing.T) {
	inputs := []VATInput{
		{Net: ptr(33.33), Rate: 19},
		{Net: ptr(0.07), Rate: 21},
		{Net: ptr(1234.56), VAT: ptr(999.99)},
		{Gross: ptr(17.01), VAT: ptr(2.71)},
		{Net: ptr(10.10), Gross: ptr(12.02)},
		{Net: ptr(99.99), Rate: 8.1},
	}
	for _, in := range inputs {
		got, ok := DeriveVAT(in, DefaultCascade)
		require.True(t, ok)
		assert.Less(t, math.Abs(got.Gross-(got.Net+got.VAT)), Tolerance, "%+v", got)
	}
}

func TestReconcile(t *testing.T) {
	net, vat, gross := Reconcile(100, 19, 119.01)
	assert.Equal(t, []float64{100, 19, 119.01}, []float64{net, vat, gross})

	net, vat, gross = Reconcile(100, 19, 125)
	assert.Equal(t, []float64{100, 19, 119}, []float64{net, vat, gross})
}

func TestDistributeVAT(t *testing.T) {
	shares := DistributeVAT(12.34, []float64{10, 10, 10})
	require.Len(t, shares, 3)
	assert.Equal(t, []float64{4.11, 4.11, 4.12}, shares)

	shares = DistributeVAT(19, []float64{50, 30, 20})
	assert.Equal(t, []float64{9.5, 5.7, 3.8}, shares)

	shares = DistributeVAT(1, []float64{0, 0})
	assert.Equal(t, []float64{0.5, 0.5}, shares)

	assert.Nil(t, DistributeVAT(5, nil))
}

func TestDistributeVAT_SharesSumToTotal(t *testing.T) {
	weights := []float64{3.17, 12.5, 0.99, 47.03, 8.8, 1.01, 22.22}
	for _, total := range []float64{0.01, 1, 7.77, 12.34, 99.99, 1001.13} {
		shares := DistributeVAT(total, weights)
		sum := 0.0
		for _, s := range shares {
			sum += s
		}
		assert.InDelta(t, total, sum, 1e-9, "total %.2f", total)
	}
}
