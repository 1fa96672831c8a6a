package querylistingsindex

import "hotsheet-workers/internal/models"

type Input struct {
	Criteria models.SearchCriteria `json:"criteria"`
	From     int                   `json:"from,omitempty"`
	Size     int                   `json:"size,omitempty"`
}

type Output struct {
	Listings  []models.Listing `json:"listings"`
	TotalHits int              `json:"totalHits"`
	Took      int              `json:"took"`
}
