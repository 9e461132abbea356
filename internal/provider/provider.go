// Package provider defines the pluggable data source abstraction the content
// retriever loads from, together with a sealed set of implementations:
// static, built-in sample, remote HTTP, Google Sheets, Redis, Elasticsearch,
// PostgreSQL, and a sequential multi-source combinator.
package provider

import (
	"context"
	"fmt"

	"catalog-agent/internal/content"
)

// Info describes a provider instance for logs and provenance stamps.
type Info struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// Provider is the uniform contract for obtaining an unordered collection of
// content items from an arbitrary backing store.
type Provider interface {
	// LoadData fetches the full item collection. Implementations do not
	// retry; the caller decides what a load failure means.
	LoadData(ctx context.Context) ([]content.Item, error)

	// ValidateData reports structural problems with a loaded collection,
	// one message per offending item. An empty slice means valid.
	ValidateData(items []content.Item) []string

	// Metadata returns descriptive info about this provider instance.
	Metadata() Info
}

// validateItems is the shared structural check: every item needs a non-empty
// title. Variants with stricter needs layer schema validation on top.
func validateItems(items []content.Item) []string {
	var errs []string
	for i, item := range items {
		if item.Title() == "" {
			errs = append(errs, fmt.Sprintf("item %d: missing required field %q", i, content.FieldTitle))
		}
	}
	return errs
}
