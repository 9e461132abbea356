package provider

import (
	"context"
	"fmt"
	"strings"

	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/content"
)

// MultiProvider queries its sources in order and merges their items. A single
// failing source is logged and skipped; loading fails only when every source
// fails.
type MultiProvider struct {
	sources []Provider
	logger  logger.Logger
}

func NewMulti(log logger.Logger, sources ...Provider) *MultiProvider {
	return &MultiProvider{sources: sources, logger: log}
}

func (p *MultiProvider) LoadData(ctx context.Context) ([]content.Item, error) {
	var merged []content.Item
	var failures []string

	for _, source := range p.sources {
		info := source.Metadata()
		items, err := source.LoadData(ctx)
		if err != nil {
			p.logger.Warn("provider failed, skipping", map[string]interface{}{
				"provider": info.Name,
				"kind":     info.Kind,
				"error":    err.Error(),
			})
			failures = append(failures, fmt.Sprintf("%s: %v", info.Name, err))
			continue
		}
		merged = append(merged, items...)
	}

	if len(merged) == 0 && len(failures) == len(p.sources) && len(p.sources) > 0 {
		return nil, fmt.Errorf("all providers failed: %s", strings.Join(failures, "; "))
	}
	// Individual source failures are tolerated, a malformed merged
	// collection is not.
	if problems := validateItems(merged); len(problems) > 0 {
		return nil, fmt.Errorf("merged collection failed validation: %s", strings.Join(problems, "; "))
	}
	return merged, nil
}

func (p *MultiProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *MultiProvider) Metadata() Info {
	names := make([]string, 0, len(p.sources))
	for _, source := range p.sources {
		names = append(names, source.Metadata().Name)
	}
	return Info{
		Name:        strings.Join(names, ","),
		Kind:        "multi",
		Description: "merged view over multiple providers",
	}
}
