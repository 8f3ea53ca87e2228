package columns

import (
	"strings"

	"github.com/fleetdesk/fuelrecon/internal/locale"
)

// Normalize trims, lower-cases and strips diacritics from a header label.
func Normalize(s string) string {
	return locale.Fold(strings.TrimPrefix(s, "\ufeff"))
}

// Mapping is canonical field name -> column index.
type Mapping map[string]int

// MapHeaders assigns header columns to fields. Each header is tested against
// the fields in table order; the first field not yet mapped whose variant
// equals or is contained in the header claims the column.
func MapHeaders(header []string, table *FieldTable) Mapping {
	variants := table.variants()
	m := make(Mapping, len(table.Fields))
	for col, label := range header {
		h := Normalize(label)
		if h == "" {
			continue
		}
		for i, f := range table.Fields {
			if _, taken := m[f.Name]; taken {
				continue
			}
			if matchesAny(h, variants[i]) {
				m[f.Name] = col
				break
			}
		}
	}
	return m
}

func matchesAny(header string, variants []string) bool {
	for _, v := range variants {
		if header == v || strings.Contains(header, v) {
			return true
		}
	}
	return false
}

// Missing returns the required fields absent from m, in the given order.
func (m Mapping) Missing(required []string) []string {
	var out []string
	for _, r := range required {
		if _, ok := m[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// Value returns the trimmed cell for field, or "" when the field is unmapped
// or the row is short.
func (m Mapping) Value(row []string, field string) string {
	i, ok := m[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Score rates how well header fits table: required fields weigh ten times
// more than optional ones. complete reports whether every required field
// was found.
func Score(header []string, table *FieldTable) (score int, complete bool) {
	m := MapHeaders(header, table)
	required := make(map[string]bool, len(table.Required))
	for _, r := range table.Required {
		required[r] = true
	}
	for field := range m {
		if required[field] {
			score += 10
		} else {
			score++
		}
	}
	return score, len(m.Missing(table.Required)) == 0
}
