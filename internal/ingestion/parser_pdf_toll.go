package ingestion

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// Layout is the line grammar of one toll report arrangement.
type Layout interface {
	Name() string
	// Detect reports whether text carries the layout's signature strings.
	Detect(text string) bool
	// TryParse extracts rows; an empty result means the grammar does not fit.
	TryParse(text string) LayoutResult
}

// LayoutResult is what a grammar recognised. Skipped counts lines that
// looked like transactions but could not be read.
type LayoutResult struct {
	Rows     []rawTxn
	Skipped  int
	Warnings []string
}

// DefaultLayouts is the ranked grammar list.
func DefaultLayouts() []Layout {
	return []Layout{groupedLedger{}, fuelSummary{}, lineInvoice{}}
}

type TollParser struct {
	layouts []Layout
	conv    currency.Converter
	log     zerolog.Logger
}

func NewTollParser(layouts []Layout, conv currency.Converter, log zerolog.Logger) *TollParser {
	if len(layouts) == 0 {
		layouts = DefaultLayouts()
	}
	return &TollParser{layouts: layouts, conv: conv, log: log}
}

func (p *TollParser) Provider() domain.Provider { return domain.ProviderToll }

func (p *TollParser) Parse(ctx context.Context, data []byte) (*ParseResult, error) {
	text, err := extractText(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoTransactions
	}

	for _, layout := range p.candidates(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := layout.TryParse(text)
		if len(res.Rows) == 0 {
			p.log.Debug().Str("layout", layout.Name()).Msg("layout yielded no rows")
			continue
		}

		n := newNormalizer(domain.ProviderToll, p.conv, currency.DefaultCascade, p.log)
		n.skipped = res.Skipped
		n.warnings = res.Warnings
		for i, r := range res.Rows {
			n.add(ctx, layout.Name()+" row "+strconv.Itoa(i+1), r)
		}
		if len(n.txns) == 0 {
			continue
		}
		p.log.Info().Str("layout", layout.Name()).Int("transactions", len(n.txns)).Msg("toll statement parsed")
		return n.result(layout.Name()), nil
	}
	return nil, ErrNoTransactions
}

// candidates orders layouts: detected ones first, then the rest, each group
// keeping rank order.
func (p *TollParser) candidates(text string) []Layout {
	var detected, rest []Layout
	for _, l := range p.layouts {
		if l.Detect(text) {
			detected = append(detected, l)
		} else {
			rest = append(rest, l)
		}
	}
	return append(detected, rest...)
}
