package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/content"
)

var ErrItemsPathNotFound = errors.New("ITEMS_PATH_NOT_FOUND")

// HTTPProvider loads items from a remote JSON endpoint. It supports header
// injection, bearer or API-key auth, and a dotted path locating the item
// array inside an arbitrary response envelope.
type HTTPProvider struct {
	cfg    config.HTTPProviderConfig
	client *http.Client
}

func NewHTTP(cfg config.HTTPProviderConfig) *HTTPProvider {
	return &HTTPProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: config.GetDuration(cfg.TimeoutMillis),
		},
	}
}

func (p *HTTPProvider) LoadData(ctx context.Context) ([]content.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}
	switch p.cfg.AuthType {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+p.cfg.AuthToken)
	case "api_key":
		req.Header.Set("X-API-Key", p.cfg.AuthToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", p.cfg.URL, resp.StatusCode)
	}

	var envelope interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	array, err := locateArray(envelope, p.cfg.ItemsPath)
	if err != nil {
		return nil, err
	}

	items := make([]content.Item, 0, len(array))
	for _, raw := range array {
		record, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		item := make(content.Item, len(record))
		for k, v := range record {
			item[content.NormalizeFieldKey(k)] = v
		}
		items = append(items, item)
	}
	return items, nil
}

// locateArray walks a dotted path into the envelope and returns the array at
// its end. An empty path means the envelope itself is the array.
func locateArray(envelope interface{}, path string) ([]interface{}, error) {
	current := envelope
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: %q is not an object", ErrItemsPathNotFound, part)
			}
			current, ok = obj[part]
			if !ok {
				return nil, fmt.Errorf("%w: missing key %q", ErrItemsPathNotFound, part)
			}
		}
	}
	array, ok := current.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: path does not resolve to an array", ErrItemsPathNotFound)
	}
	return array, nil
}

func (p *HTTPProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *HTTPProvider) Metadata() Info {
	return Info{Name: p.cfg.URL, Kind: "http", Description: "remote JSON endpoint"}
}
