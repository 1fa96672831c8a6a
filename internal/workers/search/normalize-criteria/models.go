package normalizecriteria

import (
	"encoding/json"

	"hotsheet-workers/internal/criteria"
	"hotsheet-workers/internal/models"
)

type Input struct {
	Criteria json.RawMessage `json:"criteria"`
}

type Output struct {
	Criteria models.SearchCriteria `json:"criteria"`
	Warnings []criteria.Warning    `json:"warnings"`
}
