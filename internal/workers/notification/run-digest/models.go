package rundigest

import "hotsheet-workers/internal/models"

type Input struct {
	Schedule models.NotificationSchedule `json:"schedule"`
}

type Output struct {
	SheetsProcessed    int `json:"sheetsProcessed"`
	SheetsSkipped      int `json:"sheetsSkipped"`
	ListingsConsidered int `json:"listingsConsidered"`
	JobsEnqueued       int `json:"jobsEnqueued"`
	LedgerRows         int `json:"ledgerRows"`
}
