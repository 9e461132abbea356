package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-agent/internal/common/config"
	apperrors "catalog-agent/internal/common/errors"
	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/content"
	"catalog-agent/internal/provider"
)

// failingProvider always fails its load.
type failingProvider struct{}

func (failingProvider) LoadData(context.Context) ([]content.Item, error) {
	return nil, errors.New("backend unavailable")
}
func (failingProvider) ValidateData([]content.Item) []string { return nil }
func (failingProvider) Metadata() provider.Info {
	return provider.Info{Name: "broken", Kind: "static"}
}

func testItems() []content.Item {
	return []content.Item{
		{"title": "Go for Backend Engineers", "description": "Build services in Go", "category": "Programming", "role": "Backend Engineer", "level": "intermediate", "type": "e-learning", "tags": "go, microservices"},
		{"title": "Effective Stakeholder Communication", "description": "Run better meetings", "category": "Soft Skills", "level": "beginner", "type": "workshop", "tags": "communication"},
		{"title": "Data Pipelines in Practice", "description": "ETL with modern tooling", "category": "Data Engineering", "role": "Data Engineer", "level": "advanced", "type": "e-learning", "tags": "etl, sql"},
		{"title": "Cloud Security Fundamentals", "description": "Secure cloud workloads", "category": "Security", "level": "beginner", "type": "e-learning", "tags": "cloud, security"},
	}
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		CategoryAliases: map[string][]string{
			"coding": {"Programming"},
			"devops": {"Programming", "Data Engineering"},
		},
		RoleAliases: map[string][]string{
			"developer": {"engineer"},
		},
		LevelEquivalents: map[string][]string{
			"entry": {"beginner"},
		},
		SearchableFields: []string{"title", "description", "tags", "category"},
		RoleSearchFields: []string{"title", "description", "tags"},
		TypeFields:       []string{"type", "format"},
		GenericKeywords:  []string{"training", "course", "courses"},
		MaxResults:       50,
	}
}

func newTestRetriever(t *testing.T, items []content.Item) *Retriever {
	source := provider.NewStatic("test", items)
	return NewRetriever(testSearchConfig(), source, logger.NewTestLogger(t))
}

func TestRetriever_FilterByCategory(t *testing.T) {
	tests := []struct {
		name           string
		category       string
		expectedTitles []string
	}{
		{"exact match", "Programming", []string{"Go for Backend Engineers"}},
		{"case-insensitive match", "programming", []string{"Go for Backend Engineers"}},
		{"alias resolves to canonical category", "coding", []string{"Go for Backend Engineers"}},
		{"alias mapping to several categories", "devops", []string{"Go for Backend Engineers", "Data Pipelines in Practice"}},
		{"unknown category", "Cooking", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRetriever(t, testItems())
			result, err := r.Retrieve(context.Background(), "search_by_category", map[string]interface{}{
				"category": tt.category,
			})
			require.NoError(t, err)

			var titles []string
			for _, item := range result.Items {
				titles = append(titles, item.Title())
			}
			assert.ElementsMatch(t, tt.expectedTitles, titles)
			assert.Equal(t, len(tt.expectedTitles), result.Count)
		})
	}
}

// Filtering by an alias must return the same subset as filtering by the
// canonical category it maps to.
func TestRetriever_AliasEquivalence(t *testing.T) {
	r := newTestRetriever(t, testItems())

	byAlias, err := r.Retrieve(context.Background(), "search_by_category", map[string]interface{}{"category": "coding"})
	require.NoError(t, err)
	byCanonical, err := r.Retrieve(context.Background(), "search_by_category", map[string]interface{}{"category": "Programming"})
	require.NoError(t, err)

	assert.Equal(t, byCanonical.Count, byAlias.Count)
	for i := range byCanonical.Items {
		assert.Equal(t, byCanonical.Items[i].Title(), byAlias.Items[i].Title())
	}
}

func TestRetriever_FilterByRole(t *testing.T) {
	r := newTestRetriever(t, testItems())

	t.Run("substring match on the role field", func(t *testing.T) {
		result, err := r.Retrieve(context.Background(), "search_by_role", map[string]interface{}{"role": "backend"})
		require.NoError(t, err)
		require.Equal(t, 1, result.Count)
		assert.Equal(t, "Go for Backend Engineers", result.Items[0].Title())
	})

	t.Run("alias expansion falls back to secondary fields", func(t *testing.T) {
		// "developer" expands to "engineer", matching roles and titles.
		result, err := r.Retrieve(context.Background(), "search_by_role", map[string]interface{}{"role": "developer"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
	})
}

func TestRetriever_FilterByKeywords(t *testing.T) {
	tests := []struct {
		name          string
		keyword       interface{}
		expectedCount int
	}{
		{"single keyword over searchable fields", "go", 1},
		{"keyword matches tags", "sql", 1},
		{"any-of semantics across keywords", "go sql", 2},
		{"all keywords are stopwords: filter is a no-op", "training courses", 4},
		{"keyword list form", []interface{}{"cloud"}, 1},
		{"no match", "basketweaving", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRetriever(t, testItems())
			result, err := r.Retrieve(context.Background(), "search_by_keyword", map[string]interface{}{
				"keyword": tt.keyword,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCount, result.Count)
		})
	}
}

func TestRetriever_FilterByLevelAndType(t *testing.T) {
	r := newTestRetriever(t, testItems())

	t.Run("level equivalence mapping", func(t *testing.T) {
		result, err := r.Retrieve(context.Background(), "search_by_level", map[string]interface{}{"level": "entry"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
	})

	t.Run("type substring over type fields", func(t *testing.T) {
		result, err := r.Retrieve(context.Background(), "search_by_type", map[string]interface{}{"type": "workshop"})
		require.NoError(t, err)
		require.Equal(t, 1, result.Count)
		assert.Equal(t, "Effective Stakeholder Communication", result.Items[0].Title())
	})
}

func TestRetriever_CombinedFiltersAreDeterministic(t *testing.T) {
	r := newTestRetriever(t, testItems())
	params := map[string]interface{}{
		"category": "devops",
		"keyword":  "go etl",
		"level":    "advanced",
	}

	first, err := r.Retrieve(context.Background(), "search", params)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(context.Background(), "search", params)
		require.NoError(t, err)
		assert.Equal(t, first.Count, again.Count)
		for j := range first.Items {
			assert.Equal(t, first.Items[j].Title(), again.Items[j].Title())
		}
	}
}

func TestRetriever_SortAndLimit(t *testing.T) {
	r := newTestRetriever(t, testItems())

	t.Run("ascending sort by title", func(t *testing.T) {
		result, err := r.Retrieve(context.Background(), "search", map[string]interface{}{"sort_by": "title"})
		require.NoError(t, err)
		require.Equal(t, 4, result.Count)
		assert.Equal(t, "Cloud Security Fundamentals", result.Items[0].Title())
	})

	t.Run("descending sort", func(t *testing.T) {
		result, err := r.Retrieve(context.Background(), "search", map[string]interface{}{
			"sort_by":    "title",
			"sort_order": "desc",
		})
		require.NoError(t, err)
		assert.Equal(t, "Go for Backend Engineers", result.Items[0].Title())
	})

	t.Run("limit truncates the result", func(t *testing.T) {
		result, err := r.Retrieve(context.Background(), "search", map[string]interface{}{"limit": 2})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
	})
}

func TestRetriever_Normalization(t *testing.T) {
	items := []content.Item{
		{"title": "Bare Item", "tags": "a, b"},
	}
	r := newTestRetriever(t, items)

	result, err := r.Retrieve(context.Background(), "search", map[string]interface{}{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)

	item := result.Items[0]
	assert.Equal(t, content.DefaultDescription, item.StringField("description"))
	assert.Equal(t, []string{"a", "b"}, item.Tags())
}

func TestRetriever_ProvenanceStamping(t *testing.T) {
	cfg := testSearchConfig()
	cfg.StampProvenance = true
	source := provider.NewStatic("inventory", testItems())
	r := NewRetriever(cfg, source, logger.NewTestLogger(t))

	result, err := r.Retrieve(context.Background(), "search", map[string]interface{}{})
	require.NoError(t, err)
	for _, item := range result.Items {
		assert.Equal(t, "inventory", item.StringField("_source"))
		assert.NotEmpty(t, item.StringField("_retrieved_at"))
	}
}

func TestRetriever_LoadFailure(t *testing.T) {
	r := NewRetriever(testSearchConfig(), failingProvider{}, logger.NewTestLogger(t))

	_, err := r.Retrieve(context.Background(), "search", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDataLoadFailed, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Data provider load failed")
}
