package queries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotsheet-workers/internal/models"
)

func filterClauses(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	return boolQuery["filter"].([]interface{})
}

func TestBuildListingQuery_Defaults(t *testing.T) {
	body := BuildListingQuery(models.SearchCriteria{})

	filters := filterClauses(t, body)
	require.Len(t, filters, 1)

	terms := filters[0].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, models.DefaultSearchStatuses, terms["status"])

	sort := body["sort"].([]interface{})
	require.Len(t, sort, 1)
	created := sort[0].(map[string]interface{})["created_at"].(map[string]interface{})
	assert.Equal(t, "desc", created["order"])
}

func TestBuildListingQuery_ZeroBoundsEmitNoRanges(t *testing.T) {
	body := BuildListingQuery(models.SearchCriteria{
		MinPrice: 0, MaxPrice: 0, Bedrooms: 0, Bathrooms: 0, MinSqft: 0, MaxSqft: 0,
	})

	for _, clause := range filterClauses(t, body) {
		_, isRange := clause.(map[string]interface{})["range"]
		assert.False(t, isRange)
	}
}

func TestBuildListingQuery_RangePredicates(t *testing.T) {
	body := BuildListingQuery(models.SearchCriteria{
		MinPrice: 250000,
		MaxPrice: 600000,
		Bedrooms: 3,
	})

	var priceRange, bedroomsRange map[string]interface{}
	for _, clause := range filterClauses(t, body) {
		if r, ok := clause.(map[string]interface{})["range"]; ok {
			ranges := r.(map[string]interface{})
			if p, ok := ranges["price"]; ok {
				priceRange = p.(map[string]interface{})
			}
			if b, ok := ranges["bedrooms"]; ok {
				bedroomsRange = b.(map[string]interface{})
			}
		}
	}

	require.NotNil(t, priceRange)
	assert.Equal(t, float64(250000), priceRange["gte"])
	assert.Equal(t, float64(600000), priceRange["lte"])

	require.NotNil(t, bedroomsRange)
	assert.Equal(t, 3, bedroomsRange["gte"])
	assert.NotContains(t, bedroomsRange, "lte")
}

func TestBuildListingQuery_CityShouldGroup(t *testing.T) {
	body := BuildListingQuery(models.SearchCriteria{
		Cities: []string{"Boston", "Boston-Back Bay"},
	})

	var group map[string]interface{}
	for _, clause := range filterClauses(t, body) {
		if b, ok := clause.(map[string]interface{})["bool"]; ok {
			group = b.(map[string]interface{})
		}
	}
	require.NotNil(t, group)
	assert.Equal(t, 1, group["minimum_should_match"])

	should := group["should"].([]interface{})
	require.Len(t, should, 2)

	// Plain town is one case-insensitive wildcard on city.
	wildcard := should[0].(map[string]interface{})["wildcard"].(map[string]interface{})
	city := wildcard["city"].(map[string]interface{})
	assert.Equal(t, "*Boston*", city["value"])
	assert.Equal(t, true, city["case_insensitive"])

	// The pair ANDs a neighborhood wildcard onto the town clause.
	pair := should[1].(map[string]interface{})["bool"].(map[string]interface{})
	must := pair["must"].([]interface{})
	require.Len(t, must, 2)
	nbhd := must[1].(map[string]interface{})["wildcard"].(map[string]interface{})["neighborhood"].(map[string]interface{})
	assert.Equal(t, "*Back Bay*", nbhd["value"])
}

func TestBuildListingQuery_ZipHeuristic(t *testing.T) {
	exact := BuildListingQuery(models.SearchCriteria{ZipCode: "02110"})
	foundTerm := false
	for _, clause := range filterClauses(t, exact) {
		if term, ok := clause.(map[string]interface{})["term"]; ok {
			if zip, ok := term.(map[string]interface{})["zip"]; ok {
				foundTerm = true
				assert.Equal(t, "02110", zip)
			}
		}
	}
	assert.True(t, foundTerm)

	prefix := BuildListingQuery(models.SearchCriteria{ZipCode: "02"})
	foundPrefix := false
	for _, clause := range filterClauses(t, prefix) {
		if p, ok := clause.(map[string]interface{})["prefix"]; ok {
			foundPrefix = true
			assert.Equal(t, "02", p.(map[string]interface{})["zip"])
		}
	}
	assert.True(t, foundPrefix)
}

func TestBuildListingQuery_StateUppercased(t *testing.T) {
	body := BuildListingQuery(models.SearchCriteria{State: "ma"})

	found := false
	for _, clause := range filterClauses(t, body) {
		if term, ok := clause.(map[string]interface{})["term"]; ok {
			if state, ok := term.(map[string]interface{})["state"]; ok {
				found = true
				assert.Equal(t, "MA", state)
			}
		}
	}
	assert.True(t, found)
}
