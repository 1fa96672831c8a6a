package sendemail

import "hotsheet-workers/internal/models"

type Input struct {
	Job models.EmailJob `json:"job"`
}

type Output struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	SentAt    string `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// emailTemplates maps template names selected by the dispatcher to subject
// and body skeletons. Placeholders use {{name}} and render from the job's
// variables; missing values render empty rather than failing delivery.
var emailTemplates = map[string]map[string]string{
	models.TemplateNewListingAlert: {
		"subject": "New listing: {{address}}, {{city}}",
		"body":    "A new listing matching your hot sheet {{hotSheetName}} is on the market: {{address}}, {{city}}, {{state}} at ${{price}}.",
	},
	models.TemplateNewMatchNotification: {
		"subject": "New match for {{hotSheetName}}",
		"body":    "Hi {{recipientName}}, a listing matching your saved search just went live: {{address}}, {{city}}, {{state}} at ${{price}}.",
	},
	models.TemplateClientNeedNotification: {
		"subject": "A listing in {{city}} matches your needs",
		"body":    "Hi {{recipientName}}, we found a listing that fits what you are looking for: {{address}}, {{city}}, {{state}} at ${{price}}.",
	},
	models.TemplateHotSheetDigest: {
		"subject": "{{hotSheetName}}: {{listingCount}} new listings",
		"body":    "Your hot sheet {{hotSheetName}} has {{listingCount}} new listings since the last digest.",
	},
}
