package response

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadTemplates reads a template set from a YAML file keyed by language,
// then by response type.
func LoadTemplates(path string) (TemplateSet, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read templates file: %w", err)
	}

	var raw map[string]map[string]Template
	if err := v.UnmarshalKey("templates", &raw); err != nil {
		return nil, fmt.Errorf("parse templates file: %w", err)
	}

	ts := make(TemplateSet, len(raw))
	for lang, byType := range raw {
		ts[lang] = make(map[Type]Template, len(byType))
		for name, tpl := range byType {
			ts[lang][Type(name)] = tpl
		}
	}
	return ts, nil
}
