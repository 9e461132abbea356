package catalog

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads an intent catalog from a YAML file with a top-level `intents`
// map.
func Load(path string) (Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var cat Catalog
	if err := v.UnmarshalKey("intents", &cat); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}

// Default is the built-in training-catalog intent set used when no catalog
// file is configured.
func Default() Catalog {
	return Catalog{
		"help": {
			Description: "Explain what the assistant can do and list example commands",
			Examples: []Example{
				{Input: "help"},
				{Input: "what can you do?"},
			},
		},
		"search_by_category": {
			Description: "Find catalog entries in a subject category",
			Parameters:  []string{"category"},
			Examples: []Example{
				{Input: "Find programming training", Parameters: map[string]interface{}{"category": "Programming"}},
				{Input: "show me security courses", Parameters: map[string]interface{}{"category": "Security"}},
			},
		},
		"search_by_role": {
			Description: "Find catalog entries relevant to a job role",
			Parameters:  []string{"role"},
			Examples: []Example{
				{Input: "courses for backend engineers", Parameters: map[string]interface{}{"role": "Backend Engineer"}},
			},
		},
		"search_by_keyword": {
			Description: "Find catalog entries matching free-form keywords",
			Parameters:  []string{"keyword"},
			Examples: []Example{
				{Input: "anything about kubernetes?", Parameters: map[string]interface{}{"keyword": "kubernetes"}},
			},
		},
		"search_by_level": {
			Description: "Find catalog entries at a difficulty level",
			Parameters:  []string{"level"},
			Examples: []Example{
				{Input: "beginner material please", Parameters: map[string]interface{}{"level": "beginner"}},
			},
		},
	}
}
