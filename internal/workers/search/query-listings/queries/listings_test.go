package queries

import (
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotsheet-workers/internal/models"
)

func TestBuildListingSearch_Defaults(t *testing.T) {
	query, args := BuildListingSearch(models.SearchCriteria{}, 200)

	assert.Contains(t, query, "status = ANY($1)")
	assert.True(t, strings.HasSuffix(query, "ORDER BY created_at DESC LIMIT $2"))
	require.Len(t, args, 2)
	assert.Equal(t, pq.Array(models.DefaultSearchStatuses), args[0])
	assert.Equal(t, 200, args[1])

	// No numeric predicate appears when every bound is zero.
	assert.NotContains(t, query, "price")
	assert.NotContains(t, query, "bedrooms >=")
	assert.NotContains(t, query, "bathrooms >=")
	assert.NotContains(t, query, "square_feet")
}

func TestBuildListingSearch_ExplicitStatusesReplaceDefault(t *testing.T) {
	_, args := BuildListingSearch(models.SearchCriteria{
		Statuses: []string{"sold"},
	}, 0)

	require.NotEmpty(t, args)
	assert.Equal(t, pq.Array([]string{"sold"}), args[0])
}

func TestBuildListingSearch_CityOrGroup(t *testing.T) {
	query, args := BuildListingSearch(models.SearchCriteria{
		Cities: []string{"Boston", "Boston-Back Bay", "Cambridge"},
	}, 0)

	assert.Contains(t, query,
		"(city ILIKE $2 OR (city ILIKE $3 AND neighborhood ILIKE $4) OR city ILIKE $5)")
	require.Len(t, args, 5)
	assert.Equal(t, "%Boston%", args[1])
	assert.Equal(t, "%Boston%", args[2])
	assert.Equal(t, "%Back Bay%", args[3])
	assert.Equal(t, "%Cambridge%", args[4])
}

func TestBuildListingSearch_ZipHeuristic(t *testing.T) {
	tests := []struct {
		name       string
		zip        string
		wantClause string
		wantArg    string
	}{
		{name: "five digits is exact", zip: "02110", wantClause: "zip = $2", wantArg: "02110"},
		{name: "shorter is prefix", zip: "02", wantClause: "zip LIKE $2", wantArg: "02%"},
		{name: "longer is prefix", zip: "02110-1234", wantClause: "zip LIKE $2", wantArg: "02110-1234%"},
		{name: "non numeric is prefix", zip: "0211O", wantClause: "zip LIKE $2", wantArg: "0211O%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := BuildListingSearch(models.SearchCriteria{ZipCode: tt.zip}, 0)
			assert.Contains(t, query, tt.wantClause)
			require.Len(t, args, 2)
			assert.Equal(t, tt.wantArg, args[1])
		})
	}
}

func TestBuildListingSearch_RangePredicates(t *testing.T) {
	query, args := BuildListingSearch(models.SearchCriteria{
		MinPrice:  250000,
		MaxPrice:  600000,
		Bedrooms:  3,
		Bathrooms: 1.5,
		MinSqft:   900,
		MaxSqft:   2500,
	}, 0)

	assert.Contains(t, query, "price >= $2")
	assert.Contains(t, query, "price <= $3")
	assert.Contains(t, query, "bedrooms >= $4")
	assert.Contains(t, query, "bathrooms >= $5")
	assert.Contains(t, query, "square_feet >= $6")
	assert.Contains(t, query, "square_feet <= $7")
	assert.Equal(t, []interface{}{
		pq.Array(models.DefaultSearchStatuses),
		float64(250000), float64(600000), 3, 1.5, 900, 2500,
	}, args)
}

func TestBuildListingSearch_ListingNumberPartial(t *testing.T) {
	query, args := BuildListingSearch(models.SearchCriteria{ListingNumber: "MLS-449"}, 0)

	assert.Contains(t, query, "listing_number ILIKE $2")
	assert.Equal(t, "%MLS-449%", args[1])
}

func TestBuildListingSearch_DoesNotMutateCaller(t *testing.T) {
	c := models.SearchCriteria{Cities: []string{"Boston"}}
	_, _ = BuildListingSearch(c, 10)

	assert.Empty(t, c.Statuses)
	assert.Equal(t, []string{"Boston"}, c.Cities)
}

func TestBuildListingSearch_OrderingAlwaysApplied(t *testing.T) {
	query, _ := BuildListingSearch(models.SearchCriteria{State: "MA"}, 0)
	assert.True(t, strings.HasSuffix(query, "ORDER BY created_at DESC"))
}
