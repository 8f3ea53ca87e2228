package currency_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/currency/mocks"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/logger"
)

var errFeedDown = errors.New("connection refused")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixing quotes values in RON: EUR is worth 5 RON, PLN 1.25 RON, so one EUR
// buys 4 PLN.
func fixing(date time.Time, pln float64) currency.RateSet {
	return currency.RateSet{
		Date:   date,
		Base:   "RON",
		Values: map[string]float64{"EUR": 5.0, "PLN": pln},
	}
}

func newService(t *testing.T, now time.Time) (*currency.Service, *mocks.MockRateSource) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockRateSource(ctrl)
	cache := currency.NewCache(time.Hour, 8, func() time.Time { return now })
	svc := currency.NewService(src, cache, currency.Options{ReportingCurrency: "EUR"}, logger.Nop())
	return svc, src
}

func TestService_Convert_Identity(t *testing.T) {
	svc, _ := newService(t, day(2024, 6, 1))

	conv, err := svc.Convert(context.Background(), 123.45, "eur", day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, 123.45, conv.Amount)
	assert.Equal(t, 1.0, conv.Rate)
	assert.Equal(t, domain.RateIdentity, conv.Kind)
}

func TestService_Convert_ExactDate(t *testing.T) {
	svc, src := newService(t, day(2024, 6, 1))
	src.EXPECT().Year(gomock.Any(), 2024).Return([]currency.RateSet{
		fixing(day(2024, 3, 4), 1.25),
		fixing(day(2024, 3, 5), 1.0),
	}, nil).Times(1)

	conv, err := svc.Convert(context.Background(), 100, "PLN", day(2024, 3, 5).Add(14*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 20.0, conv.Amount)
	assert.Equal(t, 5.0, conv.Rate)
	assert.Equal(t, "2024-03-05", conv.RateDate)
	assert.Equal(t, domain.RateExact, conv.Kind)

	// historical year is cached: the mock allows a single Year call
	conv, err = svc.Convert(context.Background(), 100, "PLN", day(2024, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 25.0, conv.Amount)
}

func TestService_Convert_WeekendUsesClosestEarlierDate(t *testing.T) {
	svc, src := newService(t, day(2024, 6, 1))
	src.EXPECT().Year(gomock.Any(), 2024).Return([]currency.RateSet{
		fixing(day(2024, 3, 1), 1.25),
		fixing(day(2024, 3, 4), 1.0),
	}, nil)

	conv, err := svc.Convert(context.Background(), 100, "PLN", day(2024, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 25.0, conv.Amount)
	assert.Equal(t, "2024-03-01", conv.RateDate)
	assert.Equal(t, domain.RateClosest, conv.Kind)
}

func TestService_Convert_NewYearFallsBackToPreviousYear(t *testing.T) {
	svc, src := newService(t, day(2024, 6, 1))
	src.EXPECT().Year(gomock.Any(), 2024).Return([]currency.RateSet{fixing(day(2024, 1, 3), 1.0)}, nil)
	src.EXPECT().Year(gomock.Any(), 2023).Return([]currency.RateSet{fixing(day(2023, 12, 29), 1.25)}, nil)

	conv, err := svc.Convert(context.Background(), 100, "PLN", day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "2023-12-29", conv.RateDate)
	assert.Equal(t, 25.0, conv.Amount)
}

func TestService_Convert_EarliestWhenNothingEarlier(t *testing.T) {
	svc, src := newService(t, day(2024, 6, 1))
	src.EXPECT().Year(gomock.Any(), 2024).Return([]currency.RateSet{fixing(day(2024, 1, 3), 1.25)}, nil)
	src.EXPECT().Year(gomock.Any(), 2023).Return(nil, errFeedDown)

	conv, err := svc.Convert(context.Background(), 100, "PLN", day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", conv.RateDate)
	assert.Equal(t, domain.RateEarliest, conv.Kind)
}

func TestService_Convert_SourceDownUsesFallbackTable(t *testing.T) {
	svc, src := newService(t, day(2024, 6, 1))
	src.EXPECT().Year(gomock.Any(), 2024).Return(nil, errFeedDown)

	conv, err := svc.Convert(context.Background(), 430, "PLN", day(2024, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, domain.RateDateFallback, conv.RateDate)
	assert.Equal(t, domain.RateFallback, conv.Kind)
	assert.Equal(t, 100.0, conv.Amount)
}

func TestService_Convert_UnknownCurrencyWithoutAnySource(t *testing.T) {
	svc, src := newService(t, day(2024, 6, 1))
	src.EXPECT().Year(gomock.Any(), 2024).Return(nil, errFeedDown)

	_, err := svc.Convert(context.Background(), 10, "XYZ", day(2024, 3, 5))
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)
}

func TestService_Rate_LatestIsCachedForTTL(t *testing.T) {
	now := day(2024, 6, 1).Add(9 * time.Hour)
	ctrl := gomock.NewController(t)
	src := mocks.NewMockRateSource(ctrl)
	clock := now
	cache := currency.NewCache(time.Hour, 8, func() time.Time { return clock })
	svc := currency.NewService(src, cache, currency.Options{ReportingCurrency: "EUR"}, logger.Nop())

	src.EXPECT().Latest(gomock.Any()).Return(fixing(day(2024, 5, 31), 1.25), nil).Times(1)

	snap, err := svc.Rate(context.Background(), "PLN", now)
	require.NoError(t, err)
	assert.Equal(t, domain.RateLatest, snap.Kind)
	assert.Equal(t, 4.0, snap.Rate)

	clock = now.Add(30 * time.Minute)
	_, err = svc.Rate(context.Background(), "PLN", clock)
	require.NoError(t, err)

	// after the TTL the feed is asked again; when it fails the stale set is served
	clock = now.Add(2 * time.Hour)
	src.EXPECT().Latest(gomock.Any()).Return(currency.RateSet{}, errFeedDown)
	snap, err = svc.Rate(context.Background(), "PLN", clock)
	require.NoError(t, err)
	assert.Equal(t, domain.RateCached, snap.Kind)
	assert.Equal(t, "2024-05-31", snap.RateDate)
}

func TestService_VatProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := currency.NewCache(time.Hour, 8, nil)
	svc := currency.NewService(mocks.NewMockRateSource(ctrl), cache, currency.Options{
		ReportingCurrency: "EUR",
		VATOverrides:      []domain.VatProfile{{Country: "ch", Rate: 8.1, Refundable: true}},
	}, logger.Nop())

	de := svc.VatProfile("DE")
	assert.Equal(t, 19.0, de.Rate)
	assert.True(t, de.Refundable)

	assert.False(t, svc.VatProfile("TR").Refundable)
	assert.True(t, svc.VatProfile("CH").Refundable)

	unknown := svc.VatProfile("ZZ")
	assert.Equal(t, 0.0, unknown.Rate)
	assert.False(t, unknown.Refundable)
}

func TestMemo_ReusesRatePerDay(t *testing.T) {
	svc, src := newService(t, day(2024, 6, 1))
	src.EXPECT().Year(gomock.Any(), 2024).Return(nil, errFeedDown).Times(1)

	memo := svc.NewMemo()
	a, err := memo.Convert(context.Background(), 43, "PLN", day(2024, 3, 5).Add(time.Hour))
	require.NoError(t, err)
	b, err := memo.Convert(context.Background(), 86, "PLN", day(2024, 3, 5).Add(5*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 10.0, a.Amount)
	assert.Equal(t, 20.0, b.Amount)
	assert.Equal(t, a.Rate, b.Rate)
}
