package dispatchnotifications

import "hotsheet-workers/internal/models"

type Input struct {
	Listing            models.Listing      `json:"listing"`
	MatchedHotSheets   []models.HotSheet   `json:"matchedHotSheets"`
	MatchedClientNeeds []models.ClientNeed `json:"matchedClientNeeds"`
}

type Output struct {
	EnqueuedJobs      int `json:"enqueuedJobs"`
	SkippedRecipients int `json:"skippedRecipients"`
	DedupedByEmail    int `json:"dedupedByEmail"`
	DedupedByLedger   int `json:"dedupedByLedger"`
	LedgerRows        int `json:"ledgerRows"`
}

// recipient is one pending outbound message keyed by email address. When
// the same address matches via several sources, the later source replaces
// the earlier one wholesale.
type recipient struct {
	Email     string
	Name      string
	Source    string
	Template  string
	Variables map[string]interface{}
}
