package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fleetdesk/fuelrecon/internal/columns"
)

// headerSearchRows is how far down a sheet the header row is looked for;
// exports often start with a title block.
const headerSearchRows = 10

var zipMagic = []byte("PK\x03\x04")

// readSheet returns the rows of an XLSX workbook's first sheet or of a CSV
// file with an auto-detected delimiter.
func readSheet(data []byte) ([][]string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return readXLSX(data)
	}
	return readCSV(data)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %v", ErrUnreadableFile, sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", ErrUnreadableFile, err)
	}
	return rows, nil
}

// detectDelimiter counts ';' and ',' on the first line and picks the
// majority. Tabs win only when neither appears.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	semis := bytes.Count(line, []byte(";"))
	commas := bytes.Count(line, []byte(","))
	switch {
	case semis > commas:
		return ';'
	case commas == 0 && bytes.Count(line, []byte("\t")) > 0:
		return '\t'
	}
	return ','
}

// locateHeader finds the row within the first headerSearchRows that maps
// the most fields of table.
func locateHeader(rows [][]string, table *columns.FieldTable) (int, columns.Mapping) {
	best, bestMapping := -1, columns.Mapping{}
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		m := columns.MapHeaders(rows[i], table)
		if len(m) > len(bestMapping) {
			best, bestMapping = i, m
		}
	}
	return best, bestMapping
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
