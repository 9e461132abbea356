package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/content"
)

// ElasticProvider loads every document of an index, up to MaxDocs.
type ElasticProvider struct {
	cfg    config.ElasticsearchConfig
	client *elasticsearch.Client
}

func NewElastic(cfg config.ElasticsearchConfig) (*ElasticProvider, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &ElasticProvider{cfg: cfg, client: client}, nil
}

// NewElasticWithClient wires an existing client, used by tests.
func NewElasticWithClient(cfg config.ElasticsearchConfig, client *elasticsearch.Client) *ElasticProvider {
	return &ElasticProvider{cfg: cfg, client: client}
}

func (p *ElasticProvider) LoadData(ctx context.Context) ([]content.Item, error) {
	size := p.cfg.MaxDocs
	if size <= 0 {
		size = 1000
	}
	body := strings.NewReader(`{"query":{"match_all":{}}}`)

	resp, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.cfg.Index),
		p.client.Search.WithBody(body),
		p.client.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", p.cfg.Index, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("search %s: %s", p.cfg.Index, resp.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]content.Item, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		item := make(content.Item, len(hit.Source))
		for k, v := range hit.Source {
			item[content.NormalizeFieldKey(k)] = v
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *ElasticProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *ElasticProvider) Metadata() Info {
	return Info{Name: p.cfg.Index, Kind: "elasticsearch", Description: "elasticsearch index"}
}
