// Package app wires the repositories and services shared by the HTTP server
// and the command line tool.
package app

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/columns"
	"github.com/fleetdesk/fuelrecon/internal/config"
	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/ingestion"
	"github.com/fleetdesk/fuelrecon/internal/ledger"
	"github.com/fleetdesk/fuelrecon/internal/repository"
)

type App struct {
	DB           *sql.DB
	Batches      *repository.BatchRepo
	Transactions *repository.TransactionRepo
	Vehicles     *repository.VehicleRepo
	Expenses     *repository.ExpenseRepo
	Rates        *currency.Service
	Imports      *ingestion.Service
	Ledger       *ledger.Service

	log zerolog.Logger
}

// New opens the database and builds the services described by cfg. Without
// WithRateSource the configured HTTP feed is used.
func New(cfg config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	tables := columns.DefaultTables()
	if cfg.Import.ColumnVariantsPath != "" {
		if tables, err = columns.LoadTables(cfg.Import.ColumnVariantsPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	source := o.source
	if source == nil {
		source = currency.NewFeedClient(cfg.Rates.BaseURL, cfg.Rates.FeedBase, cfg.Rates.Timeout)
	}
	cache := currency.NewCache(cfg.Rates.LatestTTL, cfg.Rates.YearsCached, o.clock)
	rates := currency.NewService(source, cache, currency.Options{
		ReportingCurrency: cfg.ReportingCurrency,
		VATOverrides:      vatProfiles(cfg.VATOverrides),
	}, log)

	a := &App{
		DB:           db,
		Batches:      repository.NewBatchRepo(db),
		Transactions: repository.NewTransactionRepo(db),
		Vehicles:     repository.NewVehicleRepo(db),
		Expenses:     repository.NewExpenseRepo(db),
		Rates:        rates,
		log:          log,
	}
	a.Imports = ingestion.NewService(a.Batches, a.Transactions, a.Vehicles, rates, ingestion.Options{
		ChunkSize: cfg.Import.ChunkSize,
		Tables:    tables,
		Now:       o.clock,
	}, log)
	a.Ledger = ledger.NewService(a.Transactions, a.Expenses, a.Vehicles, log)
	return a, nil
}

type options struct {
	source currency.RateSource
	clock  currency.Clock
}

type Option func(*options)

// WithRateSource replaces the HTTP rate feed.
func WithRateSource(s currency.RateSource) Option {
	return func(o *options) { o.source = s }
}

func WithClock(c currency.Clock) Option {
	return func(o *options) { o.clock = c }
}

func (a *App) Close() error {
	return a.DB.Close()
}

// SeedVehicles upserts the fleet snapshot stored as a JSON array at path.
func (a *App) SeedVehicles(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read vehicles: %w", err)
	}
	var vehicles []domain.Vehicle
	if err := json.Unmarshal(data, &vehicles); err != nil {
		return fmt.Errorf("parse vehicles %s: %w", path, err)
	}
	n, err := a.Vehicles.Upsert(vehicles)
	if err != nil {
		return err
	}
	a.log.Info().Int("vehicles", n).Str("file", path).Msg("fleet registry seeded")
	return nil
}

func vatProfiles(overrides []config.VATOverride) []domain.VatProfile {
	out := make([]domain.VatProfile, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, domain.VatProfile{Country: o.Country, Rate: o.Rate, Refundable: o.Refundable})
	}
	return out
}
