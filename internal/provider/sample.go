package provider

import (
	"context"

	"catalog-agent/internal/content"
)

// SampleProvider serves the built-in demo catalog used for local runs and
// tests when no real backing store is configured.
type SampleProvider struct{}

func NewSample() *SampleProvider {
	return &SampleProvider{}
}

func (p *SampleProvider) LoadData(_ context.Context) ([]content.Item, error) {
	return sampleItems(), nil
}

func (p *SampleProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *SampleProvider) Metadata() Info {
	return Info{Name: "sample", Kind: "sample", Description: "built-in demo catalog"}
}

func sampleItems() []content.Item {
	return []content.Item{
		{
			"title":       "Go for Backend Engineers",
			"description": "Hands-on service development with Go",
			"category":    "Programming",
			"role":        "Backend Engineer",
			"level":       "intermediate",
			"type":        "e-learning",
			"duration":    "12h",
			"tags":        "go, microservices, api",
		},
		{
			"title":       "Effective Stakeholder Communication",
			"description": "Workshop on communicating across teams",
			"category":    "Soft Skills",
			"role":        "Project Manager",
			"level":       "beginner",
			"type":        "workshop",
			"duration":    "4h",
			"tags":        "communication, leadership",
		},
		{
			"title":       "Data Pipelines in Practice",
			"description": "Designing and operating batch and streaming pipelines",
			"category":    "Data Engineering",
			"role":        "Data Engineer",
			"level":       "advanced",
			"type":        "e-learning",
			"duration":    "16h",
			"tags":        "etl, streaming, sql",
		},
		{
			"title":       "Cloud Security Fundamentals",
			"description": "Core security controls for cloud workloads",
			"category":    "Security",
			"role":        "DevOps Engineer",
			"level":       "beginner",
			"type":        "classroom",
			"duration":    "8h",
			"tags":        "cloud, iam, compliance",
		},
		{
			"title":       "Agile Product Discovery",
			"description": "Finding the right thing to build before building it",
			"category":    "Product",
			"role":        "Product Owner",
			"level":       "intermediate",
			"type":        "workshop",
			"duration":    "6h",
			"tags":        "agile, discovery, interviews",
		},
	}
}
