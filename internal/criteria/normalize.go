package criteria

import (
	"regexp"
	"strings"

	"hotsheet-workers/internal/models"
)

// AllCountiesSentinel expands to every town in the state.
const AllCountiesSentinel = "all"

var countySuffixRe = regexp.MustCompile(`(?i)\s*county\s*$`)

// Normalize produces the canonical filter record from raw user input. It
// never fails: unresolvable states, counties and property-type codes pass
// through as entered, each recorded as a warning so callers can tell a
// resolved value from a pass-through.
func Normalize(raw RawCriteria) (models.SearchCriteria, []Warning) {
	var warnings []Warning

	state, w := ResolveState(raw.State)
	if w != nil {
		warnings = append(warnings, *w)
	}

	cities := append([]string(nil), raw.Cities...)

	if county := strings.TrimSpace(raw.County); county != "" {
		expanded, w := expandCounty(state, county, cities)
		if w != nil {
			warnings = append(warnings, *w)
		}
		cities = expanded
	}

	if raw.ShowNeighborhoods {
		cities = expandNeighborhoods(state, cities, raw.Cities)
	}

	cities = dedupe(cities)

	types := make([]string, 0, len(raw.PropertyTypes))
	for _, code := range raw.PropertyTypes {
		label, ok := propertyTypeLabels[code]
		if !ok {
			warnings = append(warnings, Warning{
				Field:   "propertyTypes",
				Value:   code,
				Message: "unknown property type code, passing through unchanged",
			})
			label = code
		}
		types = append(types, label)
	}

	return models.SearchCriteria{
		Statuses:      append([]string(nil), raw.Statuses...),
		PropertyTypes: types,
		Cities:        cities,
		State:         state,
		ZipCode:       strings.TrimSpace(raw.ZipCode),
		MinPrice:      raw.MinPrice,
		MaxPrice:      raw.MaxPrice,
		Bedrooms:      raw.Bedrooms,
		Bathrooms:     raw.Bathrooms,
		MinSqft:       raw.MinSqft,
		MaxSqft:       raw.MaxSqft,
		ListingNumber: strings.TrimSpace(raw.ListingNumber),
	}, warnings
}

// ResolveState maps a full state name to its 2-letter code. Inputs of two
// characters or fewer are treated as codes and uppercased. An unresolvable
// name passes through trimmed, with a warning.
func ResolveState(input string) (string, *Warning) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) <= 2 {
		return strings.ToUpper(trimmed), nil
	}
	if code, ok := stateCodes[strings.ToLower(trimmed)]; ok {
		return code, nil
	}
	return trimmed, &Warning{
		Field:   "state",
		Value:   trimmed,
		Message: "state name not found, passing through unchanged",
	}
}

// NormalizeCounty strips a trailing "County" suffix (any case, surrounding
// whitespace included) so "Suffolk County", "suffolk county" and "Suffolk"
// resolve identically.
func NormalizeCounty(input string) string {
	return strings.TrimSpace(countySuffixRe.ReplaceAllString(strings.TrimSpace(input), ""))
}

func expandCounty(stateCode, county string, cities []string) ([]string, *Warning) {
	if strings.EqualFold(county, AllCountiesSentinel) {
		if towns := TownsForState(stateCode); towns != nil {
			return append(cities, towns...), nil
		}
		return cities, &Warning{
			Field:   "county",
			Value:   county,
			Message: "no county table for state " + stateCode,
		}
	}

	name := NormalizeCounty(county)
	counties := countyTowns[stateCode]
	for known, towns := range counties {
		if strings.EqualFold(known, name) {
			return append(cities, towns...), nil
		}
	}
	return cities, &Warning{
		Field:   "county",
		Value:   county,
		Message: "county not found for state " + stateCode,
	}
}

// expandNeighborhoods appends a synthetic "Town-Neighborhood" entry for each
// known neighborhood of every base town. Towns without a curated list fall
// back to neighborhoods derived from "Town-Neighborhood" strings already
// present in the caller-supplied raw list.
func expandNeighborhoods(stateCode string, cities, rawCities []string) []string {
	derived := make(map[string][]string)
	for _, entry := range rawCities {
		if town, nbhd, ok := SplitCityEntry(entry); ok {
			derived[strings.ToLower(town)] = append(derived[strings.ToLower(town)], nbhd)
		}
	}

	out := make([]string, 0, len(cities))
	for _, entry := range cities {
		out = append(out, entry)
		if _, _, isPair := SplitCityEntry(entry); isPair {
			continue
		}

		nbhds := curatedNeighborhoods(stateCode, entry)
		if len(nbhds) == 0 {
			nbhds = derived[strings.ToLower(entry)]
		}
		for _, n := range nbhds {
			out = append(out, entry+"-"+n)
		}
	}
	return out
}

func curatedNeighborhoods(stateCode, town string) []string {
	towns, ok := townNeighborhoods[stateCode]
	if !ok {
		return nil
	}
	for known, nbhds := range towns {
		if strings.EqualFold(known, town) {
			return nbhds
		}
	}
	return nil
}

// SplitCityEntry splits a "Town-Neighborhood" selector into its parts. The
// second return is empty and ok is false for a plain town entry.
func SplitCityEntry(entry string) (town, neighborhood string, ok bool) {
	idx := strings.Index(entry, "-")
	if idx <= 0 || idx == len(entry)-1 {
		return entry, "", false
	}
	return entry[:idx], entry[idx+1:], true
}

// MapPropertyType translates one UI property-type code, failing open to the
// raw code.
func MapPropertyType(code string) (string, bool) {
	label, ok := propertyTypeLabels[code]
	if !ok {
		return code, false
	}
	return label, true
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
