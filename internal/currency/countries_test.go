package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountryCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"DE", "DE", true},
		{"de", "DE", true},
		{"DEU", "DE", true},
		{"Germania", "DE", true},
		{"Germany (DE)", "DE", true},
		{"România", "RO", true},
		{"romania", "RO", true},
		{"Țările de Jos", "NL", true},
		{"EL", "GR", true},
		{"UK", "GB", true},
		{"  Magyarország ", "HU", true},
		{"Atlantis", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CountryCode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCurrencyOf(t *testing.T) {
	cur, ok := CurrencyOf("hu")
	assert.True(t, ok)
	assert.Equal(t, "HUF", cur)

	cur, _ = CurrencyOf("AT")
	assert.Equal(t, "EUR", cur)

	_, ok = CurrencyOf("XX")
	assert.False(t, ok)
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "Hungary", CountryName("hu"))
	assert.Equal(t, "Germany", CountryName("DE"))
	assert.Equal(t, "XX", CountryName("XX"))
}

func TestDefaultProfiles(t *testing.T) {
	p := defaultProfiles()
	assert.True(t, p["RO"].Refundable)
	assert.Equal(t, 19.0, p["RO"].Rate)
	assert.False(t, p["CH"].Refundable)
	assert.Equal(t, "Switzerland", p["CH"].Name)
}
