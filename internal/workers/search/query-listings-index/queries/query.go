// Package queries composes the listings search as an Elasticsearch bool
// query, mirroring the predicate semantics of the SQL builder: zero bounds
// emit nothing, city selectors form an OR-group, the zip heuristic chooses
// exact versus prefix matching.
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"hotsheet-workers/internal/criteria"
	"hotsheet-workers/internal/models"
)

var (
	ErrMissingIndex = errors.New("index name is required")
)

var exactZipRe = regexp.MustCompile(`^\d{5}$`)

// BuildListingQuery translates canonical criteria into a bool query body.
func BuildListingQuery(c models.SearchCriteria) map[string]interface{} {
	filterClauses := []interface{}{}

	statuses := c.Statuses
	if len(statuses) == 0 {
		statuses = models.DefaultSearchStatuses
	}
	filterClauses = append(filterClauses, map[string]interface{}{
		"terms": map[string]interface{}{"status": statuses},
	})

	if c.State != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"state": strings.ToUpper(c.State)},
		})
	}

	if len(c.Cities) > 0 {
		filterClauses = append(filterClauses, cityShouldGroup(c.Cities))
	}

	if c.ZipCode != "" {
		if exactZipRe.MatchString(c.ZipCode) {
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{"zip": c.ZipCode},
			})
		} else {
			filterClauses = append(filterClauses, map[string]interface{}{
				"prefix": map[string]interface{}{"zip": c.ZipCode},
			})
		}
	}

	if len(c.PropertyTypes) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"property_type": c.PropertyTypes},
		})
	}

	if priceRange := rangeBody(c.MinPrice, c.MaxPrice); priceRange != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"price": priceRange},
		})
	}
	if c.Bedrooms > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"bedrooms": map[string]interface{}{"gte": c.Bedrooms}},
		})
	}
	if c.Bathrooms > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"bathrooms": map[string]interface{}{"gte": c.Bathrooms}},
		})
	}
	if sqftRange := rangeBody(float64(c.MinSqft), float64(c.MaxSqft)); sqftRange != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"square_feet": sqftRange},
		})
	}

	if c.ListingNumber != "" {
		filterClauses = append(filterClauses, wildcardClause("listing_number", c.ListingNumber))
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

// cityShouldGroup builds the OR-group over city selectors. A plain town is
// one wildcard on city; a "Town-Neighborhood" pair ANDs a neighborhood
// wildcard onto the town clause.
func cityShouldGroup(cities []string) map[string]interface{} {
	should := []interface{}{}
	for _, entry := range cities {
		town, nbhd, isPair := criteria.SplitCityEntry(entry)
		if isPair {
			should = append(should, map[string]interface{}{
				"bool": map[string]interface{}{
					"must": []interface{}{
						wildcardClause("city", town),
						wildcardClause("neighborhood", nbhd),
					},
				},
			})
		} else {
			should = append(should, wildcardClause("city", town))
		}
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

func wildcardClause(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{
				"value":            "*" + value + "*",
				"case_insensitive": true,
			},
		},
	}
}

func rangeBody(min, max float64) map[string]interface{} {
	body := map[string]interface{}{}
	if min > 0 {
		body["gte"] = min
	}
	if max > 0 {
		body["lte"] = max
	}
	if len(body) == 0 {
		return nil
	}
	return body
}

// SearchResult is the decoded slice of an index response the workers need.
type SearchResult struct {
	Listings  []models.Listing
	TotalHits int
	Took      int
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Listing `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Execute runs the composed query against one index.
func Execute(ctx context.Context, client *elasticsearch.Client, index string, c models.SearchCriteria, from, size int) (*SearchResult, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}

	body, err := json.Marshal(BuildListingQuery(c))
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search returned status %s", res.Status())
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &SearchResult{
		Listings:  make([]models.Listing, 0, len(decoded.Hits.Hits)),
		TotalHits: decoded.Hits.Total.Value,
		Took:      decoded.Took,
	}
	for _, hit := range decoded.Hits.Hits {
		result.Listings = append(result.Listings, hit.Source)
	}
	return result, nil
}
