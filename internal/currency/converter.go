// Package currency converts amounts into the reporting currency using
// historical fixings and derives VAT per country.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// ErrUnsupportedCurrency is returned when no source, cache or fallback entry
// knows the currency.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Conversion is an amount in the reporting currency with the rate used.
type Conversion struct {
	Amount   float64
	Rate     float64
	RateDate string
	Kind     domain.RateKind
}

// Converter is what the provider parsers need from this package.
type Converter interface {
	ReportingCurrency() string
	Convert(ctx context.Context, amount float64, currency string, date time.Time) (Conversion, error)
	VatProfile(country string) domain.VatProfile
}

type Options struct {
	ReportingCurrency string
	VATOverrides      []domain.VatProfile
}

// Service resolves exchange rates and VAT profiles. It never fails an
// import because the rate feed is down: it degrades to stale cache and then
// to a static table.
type Service struct {
	source    RateSource
	cache     *Cache
	reporting string
	profiles  map[string]domain.VatProfile
	log       zerolog.Logger
}

func NewService(source RateSource, cache *Cache, opts Options, log zerolog.Logger) *Service {
	reporting := strings.ToUpper(opts.ReportingCurrency)
	if reporting == "" {
		reporting = "EUR"
	}
	profiles := defaultProfiles()
	for _, o := range opts.VATOverrides {
		code := strings.ToUpper(o.Country)
		p := profiles[code]
		p.Country = code
		if p.Name == "" {
			p.Name = o.Name
		}
		p.Rate = o.Rate
		p.Refundable = o.Refundable
		profiles[code] = p
	}
	return &Service{
		source:    source,
		cache:     cache,
		reporting: reporting,
		profiles:  profiles,
		log:       log,
	}
}

func (s *Service) ReportingCurrency() string { return s.reporting }

// VatProfile returns the standard VAT profile for an ISO-2 country. Unknown
// countries get a zero, non-refundable profile.
func (s *Service) VatProfile(country string) domain.VatProfile {
	code := strings.ToUpper(country)
	if p, ok := s.profiles[code]; ok {
		return p
	}
	return domain.VatProfile{Country: code, Name: code}
}

// Convert divides amount by the rate for currency on date and rounds to cents.
func (s *Service) Convert(ctx context.Context, amount float64, currency string, date time.Time) (Conversion, error) {
	snap, err := s.Rate(ctx, currency, date)
	if err != nil {
		return Conversion{}, err
	}
	return convertWith(amount, snap), nil
}

func convertWith(amount float64, snap domain.ExchangeRateSnapshot) Conversion {
	return Conversion{
		Amount:   Round2(amount / snap.Rate),
		Rate:     snap.Rate,
		RateDate: snap.RateDate,
		Kind:     snap.Kind,
	}
}

// Rate returns the units of currency per one reporting unit applicable on
// date. Missing days resolve to the closest earlier fixing, then to the
// previous year's last fixing, then to the earliest fixing of the year.
func (s *Service) Rate(ctx context.Context, currency string, date time.Time) (domain.ExchangeRateSnapshot, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	day := truncateDay(date)
	snap := domain.ExchangeRateSnapshot{Currency: cur, RequestedDate: day}

	if cur == s.reporting {
		snap.Rate = 1
		snap.RateDate = day.Format(time.DateOnly)
		snap.Kind = domain.RateIdentity
		return snap, nil
	}

	today := truncateDay(s.cache.Now())
	if date.IsZero() || !day.Before(today) {
		return s.latestRate(ctx, snap)
	}

	sets, err := s.yearSets(ctx, day.Year())
	if err != nil {
		s.log.Warn().Err(err).Int("year", day.Year()).Msg("historical rates unavailable")
		return s.degraded(snap)
	}

	if set, ok := s.closestOnOrBefore(sets, cur, day); ok {
		return s.fill(snap, set, cur, kindFor(set.Date, day))
	}

	if prev, err := s.yearSets(ctx, day.Year()-1); err == nil {
		if set, ok := s.closestOnOrBefore(prev, cur, day); ok {
			return s.fill(snap, set, cur, domain.RateClosest)
		}
	}

	for _, set := range sets {
		if _, ok := s.cross(set, cur); ok {
			return s.fill(snap, set, cur, domain.RateEarliest)
		}
	}

	return s.degraded(snap)
}

func (s *Service) latestRate(ctx context.Context, snap domain.ExchangeRateSnapshot) (domain.ExchangeRateSnapshot, error) {
	if set, fresh, ok := s.cache.Latest(); ok && fresh {
		if _, has := s.cross(set, snap.Currency); has {
			return s.fill(snap, set, snap.Currency, domain.RateLatest)
		}
	}

	set, err := s.source.Latest(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("latest rates unavailable")
		return s.degraded(snap)
	}
	s.cache.StoreLatest(set)

	if _, ok := s.cross(set, snap.Currency); !ok {
		return s.degraded(snap)
	}
	return s.fill(snap, set, snap.Currency, domain.RateLatest)
}

// degraded serves a stale latest fixing, then the static fallback table.
func (s *Service) degraded(snap domain.ExchangeRateSnapshot) (domain.ExchangeRateSnapshot, error) {
	if set, _, ok := s.cache.Latest(); ok {
		if _, has := s.cross(set, snap.Currency); has {
			return s.fill(snap, set, snap.Currency, domain.RateCached)
		}
	}

	rate, ok := fallbackRate(snap.Currency, s.reporting)
	if !ok {
		return snap, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, snap.Currency)
	}
	s.log.Warn().Str("currency", snap.Currency).Float64("rate", rate).Msg("using fallback exchange rate")
	snap.Rate = rate
	snap.RateDate = domain.RateDateFallback
	snap.Kind = domain.RateFallback
	return snap, nil
}

func (s *Service) yearSets(ctx context.Context, year int) ([]RateSet, error) {
	if sets, ok := s.cache.Year(year); ok {
		return sets, nil
	}
	sets, err := s.source.Year(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("rates for %d: %w", year, err)
	}
	s.cache.StoreYear(year, sets)
	return sets, nil
}

// closestOnOrBefore returns the last fixing dated on or before day that
// quotes cur. sets must be sorted ascending.
func (s *Service) closestOnOrBefore(sets []RateSet, cur string, day time.Time) (RateSet, bool) {
	for i := len(sets) - 1; i >= 0; i-- {
		if sets[i].Date.After(day) {
			continue
		}
		if _, ok := s.cross(sets[i], cur); ok {
			return sets[i], true
		}
	}
	return RateSet{}, false
}

// cross returns units of cur per one reporting unit from a fixing quoted in
// an arbitrary base currency.
func (s *Service) cross(set RateSet, cur string) (float64, bool) {
	vCur, ok := set.value(cur)
	if !ok {
		return 0, false
	}
	vRep, ok := set.value(s.reporting)
	if !ok {
		return 0, false
	}
	return vRep / vCur, true
}

func (s *Service) fill(snap domain.ExchangeRateSnapshot, set RateSet, cur string, kind domain.RateKind) (domain.ExchangeRateSnapshot, error) {
	rate, _ := s.cross(set, cur)
	snap.Rate = rate
	snap.RateDate = set.Date.Format(time.DateOnly)
	snap.Kind = kind
	return snap, nil
}

func kindFor(rateDay, requested time.Time) domain.RateKind {
	if rateDay.Equal(requested) {
		return domain.RateExact
	}
	return domain.RateClosest
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Memo memoises rate lookups per (currency, day) for the duration of one
// file so repeated rows do not re-query the service.
type Memo struct {
	svc   *Service
	rates map[string]domain.ExchangeRateSnapshot
}

func (s *Service) NewMemo() *Memo {
	return &Memo{svc: s, rates: make(map[string]domain.ExchangeRateSnapshot)}
}

func (m *Memo) ReportingCurrency() string { return m.svc.ReportingCurrency() }

func (m *Memo) VatProfile(country string) domain.VatProfile { return m.svc.VatProfile(country) }

func (m *Memo) Convert(ctx context.Context, amount float64, currency string, date time.Time) (Conversion, error) {
	key := strings.ToUpper(currency) + "|" + truncateDay(date).Format(time.DateOnly)
	snap, ok := m.rates[key]
	if !ok {
		var err error
		snap, err = m.svc.Rate(ctx, currency, date)
		if err != nil {
			return Conversion{}, err
		}
		m.rates[key] = snap
	}
	return convertWith(amount, snap), nil
}
