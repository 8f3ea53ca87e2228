package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fleetdesk/fuelrecon/internal/columns"
	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// DetectProvider infers the provider of an upload. PDFs and plain-text
// statements belong to the toll provider; spreadsheets go to whichever card
// provider's header table fits best.
func DetectProvider(fileName string, data []byte, tables *columns.Tables) (domain.Provider, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".pdf" || ext == ".txt" || bytes.HasPrefix(data, pdfMagic) {
		return domain.ProviderToll, nil
	}

	rows, err := readSheet(data)
	if err != nil {
		return "", err
	}

	var best domain.Provider
	bestScore := 0
	for _, p := range []domain.Provider{domain.ProviderA, domain.ProviderB} {
		table, ok := tables.For(string(p))
		if !ok {
			continue
		}
		for i := 0; i < len(rows) && i < headerSearchRows; i++ {
			score, complete := columns.Score(rows[i], table)
			if complete && score > bestScore {
				best, bestScore = p, score
			}
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: cannot infer provider of %q from its headers", ErrUnsupportedProvider, fileName)
	}
	return best, nil
}
