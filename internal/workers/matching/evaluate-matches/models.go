package evaluatematches

import "hotsheet-workers/internal/models"

type Input struct {
	Listing models.Listing `json:"listing"`
}

type Output struct {
	Listing            models.Listing      `json:"listing"`
	MatchedHotSheets   []models.HotSheet   `json:"matchedHotSheets"`
	MatchedClientNeeds []models.ClientNeed `json:"matchedClientNeeds"`
	HotSheetCount      int                 `json:"hotSheetCount"`
	ClientNeedCount    int                 `json:"clientNeedCount"`
}
