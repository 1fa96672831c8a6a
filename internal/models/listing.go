package models

import "time"

type ListingStatus string

const (
	StatusNew        ListingStatus = "new"
	StatusComingSoon ListingStatus = "coming_soon"
	StatusActive     ListingStatus = "active"
	StatusSold       ListingStatus = "sold"
	StatusExpired    ListingStatus = "expired"
	StatusPrivate    ListingStatus = "private"
)

type ListingType string

const (
	ListingTypeForSale ListingType = "for_sale"
	ListingTypePrivate ListingType = "private"
)

// DefaultSearchStatuses is substituted when a search specifies no status
// filter. Omitting it changes visible inventory, so it is applied in exactly
// one place (the query builders) and nowhere else.
var DefaultSearchStatuses = []string{string(StatusActive), string(StatusComingSoon)}

// OpenHouse is a scheduled public showing attached to a listing.
type OpenHouse struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Listing is the canonical property record. Bed/bath/sqft are pointers:
// a listing without a recorded value must never be disqualified from a
// match on that field.
type Listing struct {
	ID            string        `json:"id"`
	ListingNumber string        `json:"listingNumber"`
	AgentID       string        `json:"agentId"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	Neighborhood  string        `json:"neighborhood,omitempty"`
	State         string        `json:"state"`
	Zip           string        `json:"zip"`
	Price         float64       `json:"price"`
	PropertyType  string        `json:"propertyType"`
	Bedrooms      *int          `json:"bedrooms,omitempty"`
	Bathrooms     *float64      `json:"bathrooms,omitempty"`
	SquareFeet    *int          `json:"squareFeet,omitempty"`
	Status        ListingStatus `json:"status"`
	ListingType   ListingType   `json:"listingType"`
	OpenHouses    []OpenHouse   `json:"openHouses,omitempty"`
	GoLiveDate    *time.Time    `json:"goLiveDate,omitempty"`
	AutoActivate  *time.Time    `json:"autoActivateOn,omitempty"`
	ExpirationAt  *time.Time    `json:"expirationDate,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsPublic reports whether the listing is visible to public search.
func (l *Listing) IsPublic() bool {
	return l.ListingType != ListingTypePrivate && l.Status != StatusPrivate
}
