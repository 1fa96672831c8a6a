package models

import "time"

// Email templates selected by the dispatcher. Rendering happens on the
// delivery side; the dispatcher only names the template and supplies
// variables.
const (
	TemplateNewListingAlert        = "new-listing-alert"
	TemplateNewMatchNotification   = "new-match-notification"
	TemplateClientNeedNotification = "client-need-notification"
	TemplateHotSheetDigest         = "hot-sheet-digest"
)

// NotificationRecord is one row of the dedup ledger: the join of
// (hot sheet, listing, user) marking a sent notification. At most one row
// exists per (hot_sheet_id, listing_id) pair per delivery cycle.
type NotificationRecord struct {
	ID         string    `json:"id"`
	HotSheetID string    `json:"hotSheetId"`
	ListingID  string    `json:"listingId"`
	UserID     string    `json:"userId,omitempty"`
	SentAt     time.Time `json:"sentAt"`
}

// EmailJob is an opaque queued unit of work consumed by the delivery
// worker. The matching core only produces these; it never sends mail.
type EmailJob struct {
	ID        string                 `json:"id"`
	Provider  string                 `json:"provider"`
	Template  string                 `json:"template"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Variables map[string]interface{} `json:"variables,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
