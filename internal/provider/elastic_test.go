package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-agent/internal/common/config"
)

func newElasticTestServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestElasticProvider_LoadData(t *testing.T) {
	body := `{
		"hits": {
			"hits": [
				{"_source": {"Title": "Go Basics", "Category": "Programming"}},
				{"_source": {"title": "Security 101"}}
			]
		}
	}`
	server := newElasticTestServer(t, body, http.StatusOK)
	defer server.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	p := NewElasticWithClient(config.ElasticsearchConfig{Index: "catalog", MaxDocs: 100}, client)

	items, err := p.LoadData(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Go Basics", items[0].Title())
	assert.Equal(t, "Programming", items[0].StringField("category"))
	assert.Equal(t, "Security 101", items[1].Title())
}

func TestElasticProvider_SearchError(t *testing.T) {
	server := newElasticTestServer(t, `{"error": {"type": "index_not_found_exception"}}`, http.StatusNotFound)
	defer server.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	p := NewElasticWithClient(config.ElasticsearchConfig{Index: "missing"}, client)

	_, err = p.LoadData(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search missing")
}
