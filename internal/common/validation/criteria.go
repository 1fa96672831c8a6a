package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// criteriaBlobSchema guards the shape of persisted hot-sheet criteria blobs.
// Unknown fields are allowed (older and newer blob versions coexist); only
// type mismatches on known fields reject a blob.
const criteriaBlobSchema = `{
  "type": "object",
  "properties": {
    "version":        {"type": "integer"},
    "state":          {"type": "string"},
    "county":         {"type": "string"},
    "cities":         {"type": "array", "items": {"type": "string"}},
    "zip_code":       {"type": "string"},
    "statuses":       {"type": "array", "items": {"type": "string"}},
    "property_types": {"type": "array", "items": {"type": "string"}},
    "min_price":      {"type": "number", "minimum": 0},
    "max_price":      {"type": "number", "minimum": 0},
    "bedrooms":       {"type": "number", "minimum": 0},
    "bathrooms":      {"type": "number", "minimum": 0},
    "min_sqft":       {"type": "number", "minimum": 0},
    "max_sqft":       {"type": "number", "minimum": 0},
    "listing_number": {"type": "string"},
    "show_neighborhoods": {"type": "boolean"}
  },
  "additionalProperties": true
}`

var criteriaSchemaLoader = gojsonschema.NewStringLoader(criteriaBlobSchema)

// ValidateCriteriaBlob checks a raw persisted criteria document before the
// lenient decode into models.CriteriaRecord.
func ValidateCriteriaBlob(raw []byte) error {
	if len(raw) == 0 {
		// An empty blob is a valid "matches everything" criteria.
		return nil
	}

	result, err := gojsonschema.Validate(criteriaSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("criteria blob is not valid JSON: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("criteria blob failed schema validation: %s", strings.Join(msgs, "; "))
	}

	return nil
}
