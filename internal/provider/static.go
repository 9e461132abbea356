package provider

import (
	"context"

	"catalog-agent/internal/content"
)

// StaticProvider serves a fixed in-memory collection. The items are cloned on
// every load so downstream normalization never touches the originals.
type StaticProvider struct {
	name  string
	items []content.Item
}

func NewStatic(name string, items []content.Item) *StaticProvider {
	return &StaticProvider{name: name, items: items}
}

func (p *StaticProvider) LoadData(_ context.Context) ([]content.Item, error) {
	out := make([]content.Item, len(p.items))
	for i, item := range p.items {
		out[i] = item.Clone()
	}
	return out, nil
}

func (p *StaticProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *StaticProvider) Metadata() Info {
	return Info{Name: p.name, Kind: "static", Description: "fixed in-memory collection"}
}
