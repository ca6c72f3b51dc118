package llm

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema is the contract every provider response must satisfy before
// the gateway maps it onto the extraction model. Field values arrive as
// strings; highlight boxes are normalized page-relative rectangles.
const responseSchema = `{
  "type": "object",
  "required": ["title", "company_name", "resolution_date", "dividend_amount"],
  "properties": {
    "title": {"type": "string"},
    "company_name": {"type": "string"},
    "resolution_date": {"type": "string"},
    "dividend_amount": {"type": "string"},
    "highlights": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["page", "bbox"],
        "properties": {
          "page": {"type": "integer", "minimum": 1},
          "bbox": {
            "type": "array",
            "items": {"type": "number", "minimum": 0, "maximum": 1},
            "minItems": 4,
            "maxItems": 4
          },
          "label": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("voucher-response.json", responseSchema)

// validateResponse checks a raw provider response against the contract.
func validateResponse(response map[string]any) error {
	if err := compiledSchema.Validate(anyMap(response)); err != nil {
		return fmt.Errorf("provider response: %w", err)
	}
	return nil
}

// anyMap widens the map for the validator, which expects decoded JSON types.
func anyMap(m map[string]any) any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
