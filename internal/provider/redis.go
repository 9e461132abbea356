package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"catalog-agent/internal/common/config"
	"catalog-agent/internal/content"
)

// RedisProvider reads a JSON array of items stored under a single key.
type RedisProvider struct {
	cfg    config.RedisConfig
	client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisProvider {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisProvider{cfg: cfg, client: client}
}

// NewRedisWithClient wires an existing client, used by tests.
func NewRedisWithClient(cfg config.RedisConfig, client *redis.Client) *RedisProvider {
	return &RedisProvider{cfg: cfg, client: client}
}

func (p *RedisProvider) LoadData(ctx context.Context) ([]content.Item, error) {
	payload, err := p.client.Get(ctx, p.cfg.ItemsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("key %s not found", p.cfg.ItemsKey)
		}
		return nil, fmt.Errorf("get %s: %w", p.cfg.ItemsKey, err)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.cfg.ItemsKey, err)
	}

	items := make([]content.Item, 0, len(raw))
	for _, record := range raw {
		item := make(content.Item, len(record))
		for k, v := range record {
			item[content.NormalizeFieldKey(k)] = v
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *RedisProvider) ValidateData(items []content.Item) []string {
	return validateItems(items)
}

func (p *RedisProvider) Metadata() Info {
	return Info{Name: p.cfg.ItemsKey, Kind: "redis", Description: "redis json key"}
}

func (p *RedisProvider) Close() error {
	return p.client.Close()
}
