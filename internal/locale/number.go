// Package locale parses numbers and dates written in the regional formats
// found in card and toll provider exports.
package locale

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseNumber reads amounts such as "1.234,56", "1,234.56", "5.972.33",
// "12,50 EUR" or "1 200". When both separators appear the last one is the
// decimal mark. A lone separator followed by exactly three digits is a
// thousands group. Unparseable input returns false; callers skip the field.
func ParseNumber(text string) (float64, bool) {
	s, neg, ok := cleanNumber(text)
	if !ok {
		return 0, false
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case dots > 0:
		s = resolveSingle(s, ".")
	case commas > 0:
		s = resolveSingle(s, ",")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// resolveSingle handles strings where only one separator kind occurs.
func resolveSingle(s, sep string) string {
	last := strings.LastIndex(s, sep)
	after := s[last+1:]
	lead := s[:strings.Index(s, sep)]

	if len(after) == 3 && lead != "0" && lead != "" {
		return strings.ReplaceAll(s, sep, "")
	}
	head := strings.ReplaceAll(s[:last], sep, "")
	return head + "." + after
}

// cleanNumber drops whitespace and grouping apostrophes, strips currency
// letters, symbols and a percent sign around the digits, and extracts a
// leading or trailing minus sign. Letters between digits fail the parse.
func cleanNumber(text string) (string, bool, bool) {
	var b strings.Builder
	neg := false
	seenDigit := false
	// suffix is set once a unit or trailing sign follows the digits; no
	// further digits may appear.
	suffix := false
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r >= '0' && r <= '9':
			if suffix {
				return "", false, false
			}
			b.WriteRune(r)
			seenDigit = true
		case r == '.' || r == ',':
			if suffix {
				return "", false, false
			}
			b.WriteRune(r)
		case r == '-' || r == '−':
			if neg {
				return "", false, false
			}
			neg = true
			suffix = seenDigit
		case unicode.IsSpace(r), r == '\'':
		case r == '+' && !seenDigit:
		case r == '%', unicode.IsLetter(r), unicode.IsSymbol(r):
			suffix = seenDigit
		default:
			return "", false, false
		}
	}
	if !seenDigit {
		return "", false, false
	}
	return b.String(), neg, true
}
