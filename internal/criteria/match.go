package criteria

import (
	"strings"

	"hotsheet-workers/internal/models"
)

// MatchesHotSheet evaluates one listing against a hot sheet's flattened
// criteria, in memory, with the same predicate semantics the query builders
// push down to the store. Missing criteria fields are unconstrained; a
// listing field with no recorded value never disqualifies a match.
func MatchesHotSheet(l *models.Listing, c models.SearchCriteria) bool {
	if c.State != "" && !strings.EqualFold(c.State, l.State) {
		return false
	}

	if len(c.Cities) > 0 && !anyCityMatches(l, c.Cities) {
		return false
	}

	if c.MinPrice > 0 && l.Price < c.MinPrice {
		return false
	}
	if c.MaxPrice > 0 && l.Price > c.MaxPrice {
		return false
	}

	if c.Bedrooms > 0 && l.Bedrooms != nil && *l.Bedrooms < c.Bedrooms {
		return false
	}
	if c.Bathrooms > 0 && l.Bathrooms != nil && *l.Bathrooms < c.Bathrooms {
		return false
	}

	return true
}

// MatchesClientNeed evaluates one listing against a one-off buyer
// requirement: state equality, partial city match, property-type equality
// and a price ceiling. Unset fields are unconstrained.
func MatchesClientNeed(l *models.Listing, need *models.ClientNeed) bool {
	if need.State != "" && !strings.EqualFold(need.State, l.State) {
		return false
	}

	if need.City != "" && !containsFold(l.City, need.City) && !containsFold(need.City, l.City) {
		return false
	}

	if need.PropertyType != "" && !strings.EqualFold(need.PropertyType, l.PropertyType) {
		return false
	}

	if need.MaxPrice != nil && l.Price > *need.MaxPrice {
		return false
	}

	return true
}

// anyCityMatches reports whether the listing's city satisfies at least one
// selector. A "Town-Neighborhood" pair additionally constrains the
// listing's neighborhood, but only when the listing records one.
func anyCityMatches(l *models.Listing, cities []string) bool {
	for _, entry := range cities {
		town, nbhd, isPair := SplitCityEntry(entry)
		if !containsFold(l.City, town) && !containsFold(town, l.City) {
			continue
		}
		if isPair && l.Neighborhood != "" && !containsFold(l.Neighborhood, nbhd) {
			continue
		}
		return true
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
