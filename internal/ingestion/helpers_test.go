package ingestion

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/currency/mocks"
	"github.com/fleetdesk/fuelrecon/internal/logger"
)

// newTestRates returns a rate service whose feed quotes, for every day in
// 2024, 400 HUF, 4 PLN and 5 RON per EUR.
func newTestRates(t *testing.T) *currency.Service {
	t.Helper()
	ctrl := gomock.NewController(t)
	src := mocks.NewMockRateSource(ctrl)

	fixing := currency.RateSet{
		Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Base:   "RON",
		Values: map[string]float64{"EUR": 5, "HUF": 0.0125, "PLN": 1.25},
	}
	src.EXPECT().Year(gomock.Any(), gomock.Any()).Return([]currency.RateSet{fixing}, nil).AnyTimes()
	src.EXPECT().Latest(gomock.Any()).Return(fixing, nil).AnyTimes()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := currency.NewCache(time.Hour, 4, func() time.Time { return now })
	return currency.NewService(src, cache, currency.Options{ReportingCurrency: "EUR"}, logger.Nop())
}

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}
