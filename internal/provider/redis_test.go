package provider

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-agent/internal/common/config"
)

func newMiniredisProvider(t *testing.T) (*RedisProvider, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := config.RedisConfig{Address: mr.Addr(), ItemsKey: "catalog:items"}
	return NewRedisWithClient(cfg, client), mr
}

func TestRedisProvider_LoadData(t *testing.T) {
	p, mr := newMiniredisProvider(t)
	require.NoError(t, mr.Set("catalog:items", `[{"Title": "Go Basics", "Category": "Programming"}, {"title": "Security 101"}]`))

	items, err := p.LoadData(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Go Basics", items[0].Title())
	assert.Equal(t, "Programming", items[0].StringField("category"))
	assert.Equal(t, "Security 101", items[1].Title())
}

func TestRedisProvider_MissingKey(t *testing.T) {
	p, _ := newMiniredisProvider(t)

	_, err := p.LoadData(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRedisProvider_MalformedPayload(t *testing.T) {
	p, mr := newMiniredisProvider(t)
	require.NoError(t, mr.Set("catalog:items", `{"not": "an array"}`))

	_, err := p.LoadData(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
