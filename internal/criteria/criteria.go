// Package criteria holds the pure logic shared by the search and matching
// workers: normalization of raw user-entered criteria into the canonical
// filter record, and in-memory evaluation of a single listing against
// persisted hot-sheet criteria and client needs.
package criteria

// RawCriteria is search input exactly as a user entered it: the state may be
// a full name, the county may carry a "County" suffix, town entries may
// embed a neighborhood after a "-" separator, and property types are UI
// codes.
type RawCriteria struct {
	State             string   `json:"state,omitempty"`
	County            string   `json:"county,omitempty"`
	Cities            []string `json:"cities,omitempty"`
	ShowNeighborhoods bool     `json:"showNeighborhoods,omitempty"`
	Statuses          []string `json:"statuses,omitempty"`
	PropertyTypes     []string `json:"propertyTypes,omitempty"`
	ZipCode           string   `json:"zipCode,omitempty"`
	MinPrice          float64  `json:"minPrice,omitempty"`
	MaxPrice          float64  `json:"maxPrice,omitempty"`
	Bedrooms          int      `json:"bedrooms,omitempty"`
	Bathrooms         float64  `json:"bathrooms,omitempty"`
	MinSqft           int      `json:"minSqft,omitempty"`
	MaxSqft           int      `json:"maxSqft,omitempty"`
	ListingNumber     string   `json:"listingNumber,omitempty"`
}

// Warning records a fail-open substitution made during normalization. The
// search still runs with the raw value; the warning lets callers and tests
// tell "resolved" apart from "passed through".
type Warning struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}
