package querylistings

import "hotsheet-workers/internal/models"

type Input struct {
	Criteria models.SearchCriteria `json:"criteria"`
	Limit    int                   `json:"limit,omitempty"`
}

type Output struct {
	Listings           []models.Listing `json:"listings"`
	Count              int              `json:"count"`
	QueryExecutionTime string           `json:"queryExecutionTime"`
}
