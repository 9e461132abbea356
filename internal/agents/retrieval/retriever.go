// Package retrieval turns a parsed intent and its parameters into a
// filtered, sorted, bounded list of content items loaded from a data
// provider.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"catalog-agent/internal/common/config"
	apperrors "catalog-agent/internal/common/errors"
	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/content"
	"catalog-agent/internal/provider"
)

// Parameter names the retriever recognizes.
const (
	ParamCategory  = "category"
	ParamRole      = "role"
	ParamKeyword   = "keyword"
	ParamLevel     = "level"
	ParamType      = "type"
	ParamSortBy    = "sort_by"
	ParamSortOrder = "sort_order"
	ParamLimit     = "limit"
)

// SearchResult is the ordered outcome of one retrieval, paired with the
// intent and parameters that produced it.
type SearchResult struct {
	Intent     string                 `json:"intent"`
	Parameters map[string]interface{} `json:"parameters"`
	Items      []content.Item         `json:"items"`
	Count      int                    `json:"count"`
}

// Retriever applies the filter pipeline over a provider's item collection.
type Retriever struct {
	cfg    config.SearchConfig
	source provider.Provider
	logger logger.Logger
	now    func() time.Time
}

func NewRetriever(cfg config.SearchConfig, source provider.Provider, log logger.Logger) *Retriever {
	return &Retriever{
		cfg:    cfg,
		source: source,
		logger: log.WithFields(map[string]interface{}{"component": "content_retriever"}),
		now:    time.Now,
	}
}

// Retrieve loads the full collection once and applies the filters for
// whichever parameters are present, in fixed order: category, role, keyword,
// level, type. Filtering is followed by an optional stable sort, an optional
// limit, and per-item normalization.
func (r *Retriever) Retrieve(ctx context.Context, intentName string, params map[string]interface{}) (*SearchResult, error) {
	info := r.source.Metadata()
	items, err := r.source.LoadData(ctx)
	if err != nil {
		return nil, apperrors.NewDataLoadError(info.Name, err)
	}

	candidates := items
	if v := stringParam(params, ParamCategory); v != "" {
		candidates = r.filterByCategory(candidates, v)
	}
	if v := stringParam(params, ParamRole); v != "" {
		candidates = r.filterByRole(candidates, v)
	}
	if kws := keywordParam(params); len(kws) > 0 {
		candidates = r.filterByKeywords(candidates, kws)
	}
	if v := stringParam(params, ParamLevel); v != "" {
		candidates = r.filterByLevel(candidates, v)
	}
	if v := stringParam(params, ParamType); v != "" {
		candidates = r.filterByType(candidates, v)
	}

	candidates = r.sortItems(candidates, params)
	candidates = r.limitItems(candidates, params)

	retrievedAt := r.now().UTC()
	normalized := make([]content.Item, len(candidates))
	for i, item := range candidates {
		out := item.Normalize()
		if r.cfg.StampProvenance {
			out.StampProvenance(info.Name, retrievedAt)
		}
		normalized[i] = out
	}

	r.logger.Info("retrieval complete", map[string]interface{}{
		"intent":  intentName,
		"loaded":  len(items),
		"matched": len(normalized),
		"source":  info.Name,
	})

	return &SearchResult{
		Intent:     intentName,
		Parameters: params,
		Items:      normalized,
		Count:      len(normalized),
	}, nil
}

// filterByCategory keeps items whose category matches the requested one
// exactly (case-insensitive) or via the configured alias map.
func (r *Retriever) filterByCategory(items []content.Item, requested string) []content.Item {
	accepted := map[string]bool{strings.ToLower(requested): true}
	for alias, canonicals := range r.cfg.CategoryAliases {
		if strings.EqualFold(alias, requested) {
			for _, c := range canonicals {
				accepted[strings.ToLower(c)] = true
			}
		}
	}

	var out []content.Item
	for _, item := range items {
		if accepted[strings.ToLower(item.StringField("category"))] {
			out = append(out, item)
		}
	}
	return out
}

// filterByRole matches the role field (or its alias expansions) by
// substring; items without a role hit fall back to substring search over the
// configured secondary fields.
func (r *Retriever) filterByRole(items []content.Item, requested string) []content.Item {
	needles := []string{strings.ToLower(requested)}
	for alias, expansions := range r.cfg.RoleAliases {
		if strings.EqualFold(alias, requested) {
			for _, e := range expansions {
				needles = append(needles, strings.ToLower(e))
			}
		}
	}

	fallbackFields := r.cfg.RoleSearchFields
	if len(fallbackFields) == 0 {
		fallbackFields = []string{"title", "description", "tags"}
	}

	var out []content.Item
	for _, item := range items {
		role := strings.ToLower(item.StringField("role"))
		matched := false
		for _, needle := range needles {
			if role != "" && strings.Contains(role, needle) {
				matched = true
				break
			}
		}
		if !matched {
			for _, field := range fallbackFields {
				haystack := strings.ToLower(item.StringField(field))
				for _, needle := range needles {
					if haystack != "" && strings.Contains(haystack, needle) {
						matched = true
						break
					}
				}
				if matched {
					break
				}
			}
		}
		if matched {
			out = append(out, item)
		}
	}
	return out
}

// filterByKeywords strips the configured generic keywords first; if nothing
// remains the filter is a no-op. Otherwise an item matches when any remaining
// keyword is a substring of any searchable field.
func (r *Retriever) filterByKeywords(items []content.Item, keywords []string) []content.Item {
	var effective []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || r.isGenericKeyword(kw) {
			continue
		}
		effective = append(effective, kw)
	}
	if len(effective) == 0 {
		return items
	}

	fields := r.cfg.SearchableFields
	if len(fields) == 0 {
		fields = []string{"title", "description", "tags", "category"}
	}

	var out []content.Item
	for _, item := range items {
		matched := false
		for _, field := range fields {
			haystack := strings.ToLower(item.StringField(field))
			if haystack == "" {
				continue
			}
			for _, kw := range effective {
				if strings.Contains(haystack, kw) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if matched {
			out = append(out, item)
		}
	}
	return out
}

func (r *Retriever) isGenericKeyword(kw string) bool {
	for _, generic := range r.cfg.GenericKeywords {
		if strings.EqualFold(generic, kw) {
			return true
		}
	}
	return false
}

// filterByLevel matches exactly (case-insensitive) or through the configured
// level-equivalence map.
func (r *Retriever) filterByLevel(items []content.Item, requested string) []content.Item {
	accepted := map[string]bool{strings.ToLower(requested): true}
	for level, equivalents := range r.cfg.LevelEquivalents {
		if strings.EqualFold(level, requested) {
			for _, e := range equivalents {
				accepted[strings.ToLower(e)] = true
			}
		}
	}

	var out []content.Item
	for _, item := range items {
		if accepted[strings.ToLower(item.StringField("level"))] {
			out = append(out, item)
		}
	}
	return out
}

// filterByType matches by substring against the configured type-bearing
// fields.
func (r *Retriever) filterByType(items []content.Item, requested string) []content.Item {
	needle := strings.ToLower(requested)
	fields := r.cfg.TypeFields
	if len(fields) == 0 {
		fields = []string{"type", "format"}
	}

	var out []content.Item
	for _, item := range items {
		for _, field := range fields {
			haystack := strings.ToLower(item.StringField(field))
			if haystack != "" && strings.Contains(haystack, needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// sortItems applies a stable lexicographic sort when a sort field is
// requested by parameter or configured as default.
func (r *Retriever) sortItems(items []content.Item, params map[string]interface{}) []content.Item {
	field := stringParam(params, ParamSortBy)
	if field == "" {
		field = r.cfg.DefaultSortField
	}
	if field == "" {
		return items
	}
	descending := strings.EqualFold(stringParam(params, ParamSortOrder), "desc")

	out := make([]content.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		a := strings.ToLower(out[i].StringField(field))
		b := strings.ToLower(out[j].StringField(field))
		if descending {
			return a > b
		}
		return a < b
	})
	return out
}

func (r *Retriever) limitItems(items []content.Item, params map[string]interface{}) []content.Item {
	limit := intParam(params, ParamLimit)
	if limit <= 0 || r.cfg.MaxResults > 0 && limit > r.cfg.MaxResults {
		limit = r.cfg.MaxResults
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func stringParam(params map[string]interface{}, name string) string {
	if v, ok := params[name]; ok {
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	return ""
}

// keywordParam accepts a single string (split on spaces and commas) or an
// array of strings.
func keywordParam(params map[string]interface{}) []string {
	raw, ok := params[ParamKeyword]
	if !ok {
		raw, ok = params["keywords"]
	}
	if !ok || raw == nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		return strings.FieldsFunc(v, func(r rune) bool {
			return r == ' ' || r == ','
		})
	case []string:
		return v
	case []interface{}:
		var out []string
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func intParam(params map[string]interface{}, name string) int {
	switch v := params[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
	}
	return 0
}
