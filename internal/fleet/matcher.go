// Package fleet resolves free-text vehicle identifiers against the fleet
// registry.
package fleet

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// minContainKey is the shortest match key allowed to take part in
// containment matching; shorter keys would match almost anything.
const minContainKey = 3

// minSuggestKey is the shortest key compared by edit distance.
const minSuggestKey = 6

// editOptions counts a substituted character as one edit.
var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

type Match struct {
	VehicleID    string
	Registration string
	Kind         MatchKind
}

type entry struct {
	key     string
	vehicle domain.Vehicle
}

// Matcher is built once per import from a snapshot of the registry.
type Matcher struct {
	byKey   map[string]domain.Vehicle
	entries []entry
	log     zerolog.Logger
}

func NewMatcher(vehicles []domain.Vehicle, log zerolog.Logger) *Matcher {
	m := &Matcher{
		byKey: make(map[string]domain.Vehicle, len(vehicles)),
		log:   log,
	}
	for _, v := range vehicles {
		key := domain.RegistrationKey(v.RegistrationNumber)
		if key == "" {
			continue
		}
		if _, dup := m.byKey[key]; dup {
			continue
		}
		m.byKey[key] = v
		m.entries = append(m.entries, entry{key: key, vehicle: v})
	}
	return m
}

func (m *Matcher) Len() int { return len(m.entries) }

// Match finds the vehicle for text: exact match key first, then
// containment in either direction (first registry entry wins).
func (m *Matcher) Match(text string) (Match, bool) {
	key := domain.RegistrationKey(text)
	if key == "" {
		return Match{}, false
	}

	if v, ok := m.byKey[key]; ok {
		return Match{VehicleID: v.ID, Registration: v.RegistrationNumber, Kind: MatchExact}, true
	}

	if len(key) >= minContainKey {
		for _, e := range m.entries {
			if len(e.key) < minContainKey {
				continue
			}
			if strings.Contains(key, e.key) || strings.Contains(e.key, key) {
				m.log.Info().
					Str("input", text).
					Str("registration", e.vehicle.RegistrationNumber).
					Msg("fuzzy vehicle match")
				return Match{VehicleID: e.vehicle.ID, Registration: e.vehicle.RegistrationNumber, Kind: MatchFuzzy}, true
			}
		}
	}

	return Match{}, false
}

// Suggest returns the registry entry one edit away from text, for
// reporting a likely typo on a row Match left unmatched. It never
// assigns the vehicle.
func (m *Matcher) Suggest(text string) (domain.Vehicle, bool) {
	key := domain.RegistrationKey(text)
	if len(key) < minSuggestKey {
		return domain.Vehicle{}, false
	}
	for _, e := range m.entries {
		if len(e.key) < minSuggestKey {
			continue
		}
		if levenshtein.DistanceForStrings([]rune(key), []rune(e.key), editOptions) <= 1 {
			return e.vehicle, true
		}
	}
	return domain.Vehicle{}, false
}

// MatchVehicle is a one-shot lookup returning the vehicle ID or "".
func MatchVehicle(text string, registry []domain.Vehicle) string {
	m, ok := NewMatcher(registry, zerolog.Nop()).Match(text)
	if !ok {
		return ""
	}
	return m.VehicleID
}
