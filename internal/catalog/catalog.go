// Package catalog defines the closed set of intents an agent instance
// recognizes. The catalog is supplied by the caller and treated as read-only
// for the lifetime of every request.
package catalog

import (
	"fmt"
	"sort"
)

// Example is one worked classification example attached to an intent.
type Example struct {
	Input      string                 `json:"input" mapstructure:"input"`
	Parameters map[string]interface{} `json:"parameters,omitempty" mapstructure:"parameters"`
}

// Intent describes one recognizable user goal.
type Intent struct {
	Description string    `json:"description" mapstructure:"description"`
	Parameters  []string  `json:"parameters,omitempty" mapstructure:"parameters"`
	Examples    []Example `json:"examples,omitempty" mapstructure:"examples"`
}

// Catalog maps intent name to its definition.
type Catalog map[string]Intent

// Has reports whether name is a valid intent in this catalog.
func (c Catalog) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Names returns the intent names in deterministic order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks structural soundness: at least one intent, every intent
// named and described.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("intent catalog is empty")
	}
	for name, def := range c {
		if name == "" {
			return fmt.Errorf("intent with empty name")
		}
		if def.Description == "" {
			return fmt.Errorf("intent %q has no description", name)
		}
	}
	return nil
}
