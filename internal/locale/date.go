package locale

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var (
	dottedDate   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})(?:[ -](\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	slashCompact = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}) (\d{2})(\d{2})$`)
	slashColon   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}) (\d{1,2}):(\d{2})$`)
	isoSpaced    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2}) (\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseDate tries, in order: ISO 8601, DD.MM.YYYY[ -]HH:MM, DD/MM/YY HHMM,
// DD/MM/YY HH:MM and YYYY-MM-DD HH:MM[:SS]. The first pattern that matches
// wins. Wall-clock values without a zone are returned in UTC.
func ParseDate(text string) (time.Time, bool) {
	s := strings.Join(strings.Fields(text), " ")
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	if m := dottedDate.FindStringSubmatch(s); m != nil {
		return build(m[3], m[2], m[1], m[4], m[5], m[6])
	}
	if m := slashCompact.FindStringSubmatch(s); m != nil {
		return build("20"+m[3], m[2], m[1], m[4], m[5], "")
	}
	if m := slashColon.FindStringSubmatch(s); m != nil {
		return build("20"+m[3], m[2], m[1], m[4], m[5], "")
	}
	if m := isoSpaced.FindStringSubmatch(s); m != nil {
		return build(m[1], m[2], m[3], m[4], m[5], m[6])
	}
	return time.Time{}, false
}

// build assembles a UTC time and rejects values time.Date would normalise,
// such as 31.02 or 25:00.
func build(year, month, day, hour, minute, second string) (time.Time, bool) {
	y, mo, d := atoi(year), atoi(month), atoi(day)
	h, mi, sec := atoi(hour), atoi(minute), atoi(second)
	if mo < 1 || mo > 12 || d < 1 || h > 23 || mi > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, h, mi, sec, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
