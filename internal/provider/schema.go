package provider

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"catalog-agent/internal/content"
)

// itemSchema is the structural contract every loaded item must satisfy before
// it enters retrieval. Only the title is mandatory; the descriptive fields are
// typed when present.
const itemSchema = `{
	"type": "object",
	"required": ["title"],
	"properties": {
		"title":       {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"category":    {"type": "string"},
		"level":       {"type": "string"},
		"type":        {"type": "string"},
		"duration":    {"type": ["string", "number"]},
		"tags":        {"type": ["string", "array"]}
	}
}`

var itemSchemaLoader = gojsonschema.NewStringLoader(itemSchema)

// ValidateSchema checks every item against the item schema and returns one
// message per violation.
func ValidateSchema(items []content.Item) []string {
	var errs []string
	for i, item := range items {
		result, err := gojsonschema.Validate(itemSchemaLoader, gojsonschema.NewGoLoader(map[string]interface{}(item)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		for _, desc := range result.Errors() {
			errs = append(errs, fmt.Sprintf("item %d: %s", i, desc.String()))
		}
	}
	return errs
}
