package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/columns"
	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/fleet"
	"github.com/fleetdesk/fuelrecon/internal/logger"
	"github.com/fleetdesk/fuelrecon/internal/repository"
)

const defaultChunkSize = 100

type BatchStore interface {
	Insert(b *domain.ImportBatch) error
	Finalize(b *domain.ImportBatch) error
}

type TransactionStore interface {
	DedupKeys(companyID string, from, to time.Time) (map[string]struct{}, error)
	BulkInsert(txns []domain.NormalizedTransaction) (int, error)
	BatchStats(batchID string) (*repository.BatchStats, error)
}

type VehicleSource interface {
	ListByCompany(companyID string) ([]domain.Vehicle, error)
}

type ImportRequest struct {
	CompanyID  string
	Provider   domain.Provider // empty means detect
	FileName   string
	Data       []byte
	ImportedBy string
}

// ImportResult is returned from a successful import.
type ImportResult struct {
	Batch      *domain.ImportBatch `json:"batch"`
	Duplicates int                 `json:"duplicates_skipped"`
	FailedRows int                 `json:"failed_rows"`
	Layout     string              `json:"layout,omitempty"`
	Warnings   []string            `json:"warnings,omitempty"`
}

type Options struct {
	ChunkSize int
	Tables    *columns.Tables
	Layouts   []Layout
	Now       func() time.Time
}

// Service parses provider files, drops rows imported before, matches
// vehicles and persists the rest as one batch.
type Service struct {
	batches  BatchStore
	txns     TransactionStore
	vehicles VehicleSource
	rates    *currency.Service
	tables   *columns.Tables
	layouts  []Layout
	chunk    int
	now      func() time.Time
	log      zerolog.Logger

	locks companyLocks
}

func NewService(batches BatchStore, txns TransactionStore, vehicles VehicleSource, rates *currency.Service, opts Options, log zerolog.Logger) *Service {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Tables == nil {
		opts.Tables = columns.DefaultTables()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		batches:  batches,
		txns:     txns,
		vehicles: vehicles,
		rates:    rates,
		tables:   opts.Tables,
		layouts:  opts.Layouts,
		chunk:    opts.ChunkSize,
		now:      opts.Now,
		log:      log,
	}
}

// parser builds a parser for one file. conv is the per-file memo.
func (s *Service) parser(provider domain.Provider, conv currency.Converter, log zerolog.Logger) (Parser, error) {
	switch provider {
	case domain.ProviderA, domain.ProviderB:
		table, ok := s.tables.For(string(provider))
		if !ok {
			return nil, fmt.Errorf("%w: no column table for %s", ErrUnsupportedProvider, provider)
		}
		if provider == domain.ProviderA {
			return NewSheetAParser(table, conv, log), nil
		}
		return NewSheetBParser(table, conv, log), nil
	case domain.ProviderToll:
		return NewTollParser(s.layouts, conv, log), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
}

// Preview parses a file without touching the store.
func (s *Service) Preview(ctx context.Context, provider domain.Provider, fileName string, data []byte) (*ParseResult, domain.Provider, error) {
	if provider == "" {
		var err error
		if provider, err = DetectProvider(fileName, data, s.tables); err != nil {
			return nil, "", err
		}
	}
	log := logger.FromContextOr(ctx, s.log).With().Str("provider", string(provider)).Str("file", fileName).Logger()
	p, err := s.parser(provider, s.rates.NewMemo(), log)
	if err != nil {
		return nil, "", err
	}
	res, err := p.Parse(ctx, data)
	if err != nil {
		return nil, provider, err
	}
	return res, provider, nil
}

// Import runs one file through parse, dedup, match and persist. File-level
// failures return before any batch is created. Imports for the same company
// are serialised so the dedup check and the insert cannot interleave.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	unlock := s.locks.lock(req.CompanyID)
	defer unlock()

	res, provider, err := s.Preview(ctx, req.Provider, req.FileName, req.Data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.FileName, err)
	}
	if len(res.Transactions) == 0 {
		return nil, fmt.Errorf("parse %s: %w (%d rows skipped)", req.FileName, ErrNoTransactions, res.Metadata.Skipped)
	}

	log := logger.FromContextOr(ctx, s.log).With().
		Str("company_id", req.CompanyID).
		Str("provider", string(provider)).
		Str("file", req.FileName).
		Logger()

	existing, err := s.txns.DedupKeys(req.CompanyID, res.Metadata.PeriodStart, res.Metadata.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("load existing transactions: %w", err)
	}
	fresh := make([]domain.NormalizedTransaction, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		if _, dup := existing[t.DedupKey]; dup {
			continue
		}
		fresh = append(fresh, t)
	}
	duplicates := len(res.Transactions) - len(fresh)
	if len(fresh) == 0 {
		log.Info().Int("duplicates", duplicates).Msg("upload contains no new transactions")
		return nil, ErrNothingNew
	}

	vehicles, err := s.vehicles.ListByCompany(req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load fleet registry: %w", err)
	}
	matcher := fleet.NewMatcher(vehicles, log)
	log.Debug().Int("registry", matcher.Len()).Int("transactions", len(fresh)).Msg("matching vehicles")

	now := s.now().UTC()
	batch := &domain.ImportBatch{
		ID:         uuid.NewString(),
		CompanyID:  req.CompanyID,
		Provider:   provider,
		FileName:   req.FileName,
		Currency:   s.rates.ReportingCurrency(),
		Status:     domain.BatchProcessing,
		ImportedBy: req.ImportedBy,
		CreatedAt:  now,
	}
	if err := s.batches.Insert(batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	warnings := res.Metadata.Warnings
	for i := range fresh {
		t := &fresh[i]
		t.ID = uuid.NewString()
		t.CompanyID = req.CompanyID
		t.BatchID = batch.ID
		t.CreatedAt = now
		if m, ok := matcher.Match(t.VehicleRaw); ok {
			id := m.VehicleID
			t.VehicleID = &id
			t.Status = domain.StatusMatched
		} else {
			t.Status = domain.StatusUnmatched
			if v, ok := matcher.Suggest(t.VehicleRaw); ok && len(warnings) < maxWarnings {
				warnings = append(warnings, fmt.Sprintf("vehicle %q is not in the registry; closest registration is %s", t.VehicleRaw, v.RegistrationNumber))
			}
		}
	}

	failed := s.persist(log, fresh)

	stats, err := s.txns.BatchStats(batch.ID)
	if err != nil {
		return nil, fmt.Errorf("count batch %s: %w", batch.ID, err)
	}
	batch.TotalTransactions = stats.Total
	batch.MatchedTransactions = stats.Matched
	batch.UnmatchedTransactions = stats.Unmatched
	batch.SkippedRows = res.Metadata.Skipped
	batch.TotalAmount = currency.Round2(stats.TotalAmount)
	batch.PeriodStart = stats.PeriodStart
	batch.PeriodEnd = stats.PeriodEnd
	batch.Status = domain.BatchCompleted
	if stats.Unmatched > 0 || failed > 0 {
		batch.Status = domain.BatchPartial
	}
	if err := s.batches.Finalize(batch); err != nil {
		return nil, fmt.Errorf("finalize batch %s: %w", batch.ID, err)
	}

	log.Info().
		Str("batch_id", batch.ID).
		Int("transactions", batch.TotalTransactions).
		Int("unmatched", batch.UnmatchedTransactions).
		Int("duplicates", duplicates).
		Int("skipped", batch.SkippedRows).
		Int("failed", failed).
		Msg("import finished")

	return &ImportResult{
		Batch:      batch,
		Duplicates: duplicates,
		FailedRows: failed,
		Layout:     res.Metadata.Layout,
		Warnings:   warnings,
	}, nil
}

// persist writes txns in chunks. A failed chunk is logged and skipped; the
// number of rows that were not stored is returned.
func (s *Service) persist(log zerolog.Logger, txns []domain.NormalizedTransaction) int {
	failed := 0
	for start := 0; start < len(txns); start += s.chunk {
		end := start + s.chunk
		if end > len(txns) {
			end = len(txns)
		}
		if _, err := s.txns.BulkInsert(txns[start:end]); err != nil {
			log.Error().Err(err).Int("from", start).Int("to", end).Msg("chunk not persisted")
			failed += end - start
		}
	}
	return failed
}

// companyLocks hands out one mutex per company.
type companyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *companyLocks) lock(companyID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[companyID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[companyID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
