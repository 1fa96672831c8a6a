package transitionstatus

type Input struct {
	Mode string `json:"mode"` // "activate", "expire" or "promote"
	// Promote only: the off-market listing and its destination status.
	ListingID    string `json:"listingId,omitempty"`
	TargetStatus string `json:"targetStatus,omitempty"`
}

type Output struct {
	Mode         string   `json:"mode"`
	AffectedIDs  []string `json:"affectedIds"`
	AffectedRows int      `json:"affectedRows"`
}

const (
	ModeActivate = "activate"
	ModeExpire   = "expire"
	ModePromote  = "promote"
)
