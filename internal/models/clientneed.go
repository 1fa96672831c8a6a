package models

import "time"

// ClientNeed is a one-off buyer requirement submitted directly by a
// consumer. It is matched once per new listing, never re-evaluated on a
// schedule.
type ClientNeed struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	State        string    `json:"state,omitempty"`
	City         string    `json:"city,omitempty"`
	PropertyType string    `json:"propertyType,omitempty"`
	MaxPrice     *float64  `json:"maxPrice,omitempty"`
	Bedrooms     *int      `json:"bedrooms,omitempty"`
	Bathrooms    *float64  `json:"bathrooms,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
