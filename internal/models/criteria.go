package models

// SearchCriteria is the canonical filter record produced by the criteria
// normalizer. It is built fresh per request and never persisted as-is.
// Empty fields mean "no constraint", never "match nothing". Zero is not a
// legitimate lower bound for any numeric field in this domain, so a zero
// bound is treated as unset.
type SearchCriteria struct {
	Statuses      []string `json:"statuses,omitempty"`
	PropertyTypes []string `json:"propertyTypes,omitempty"`
	// Cities holds town selectors; an entry may embed a neighborhood as
	// "Town-Neighborhood".
	Cities        []string `json:"cities,omitempty"`
	State         string   `json:"state,omitempty"`
	ZipCode       string   `json:"zipCode,omitempty"`
	MinPrice      float64  `json:"minPrice,omitempty"`
	MaxPrice      float64  `json:"maxPrice,omitempty"`
	Bedrooms      int      `json:"bedrooms,omitempty"`
	Bathrooms     float64  `json:"bathrooms,omitempty"`
	MinSqft       int      `json:"minSqft,omitempty"`
	MaxSqft       int      `json:"maxSqft,omitempty"`
	ListingNumber string   `json:"listingNumber,omitempty"`
}

// CriteriaRecord is the persisted, versioned form of a hot sheet's criteria.
// Every field is optional so older blobs missing newer fields decode to
// "unconstrained" instead of failing.
type CriteriaRecord struct {
	Version           int       `json:"version,omitempty"`
	State             string    `json:"state,omitempty"`
	County            string    `json:"county,omitempty"`
	Cities            []string  `json:"cities,omitempty"`
	ZipCode           string    `json:"zip_code,omitempty"`
	Statuses          []string  `json:"statuses,omitempty"`
	PropertyTypes     []string  `json:"property_types,omitempty"`
	MinPrice          *float64  `json:"min_price,omitempty"`
	MaxPrice          *float64  `json:"max_price,omitempty"`
	Bedrooms          *int      `json:"bedrooms,omitempty"`
	Bathrooms         *float64  `json:"bathrooms,omitempty"`
	MinSqft           *int      `json:"min_sqft,omitempty"`
	MaxSqft           *int      `json:"max_sqft,omitempty"`
	ListingNumber     string    `json:"listing_number,omitempty"`
	ShowNeighborhoods bool      `json:"show_neighborhoods,omitempty"`
}

// ToSearchCriteria flattens a persisted record into the canonical filter
// shape, with nil numeric fields degrading to unset.
func (c *CriteriaRecord) ToSearchCriteria() SearchCriteria {
	sc := SearchCriteria{
		Statuses:      c.Statuses,
		PropertyTypes: c.PropertyTypes,
		Cities:        c.Cities,
		State:         c.State,
		ZipCode:       c.ZipCode,
		ListingNumber: c.ListingNumber,
	}
	if c.MinPrice != nil {
		sc.MinPrice = *c.MinPrice
	}
	if c.MaxPrice != nil {
		sc.MaxPrice = *c.MaxPrice
	}
	if c.Bedrooms != nil {
		sc.Bedrooms = *c.Bedrooms
	}
	if c.Bathrooms != nil {
		sc.Bathrooms = *c.Bathrooms
	}
	if c.MinSqft != nil {
		sc.MinSqft = *c.MinSqft
	}
	if c.MaxSqft != nil {
		sc.MaxSqft = *c.MaxSqft
	}
	return sc
}
