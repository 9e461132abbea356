package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
agent:
  name: test-agent
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-agent", cfg.Agent.Name)
	assert.Equal(t, "en", cfg.Agent.DefaultLanguage)
	assert.Equal(t, "help", cfg.Agent.HelpIntent)
	assert.Equal(t, "friendly", cfg.Agent.ErrorMode)
	assert.Equal(t, "openai", cfg.Classifier.Backend)
	assert.Equal(t, 1000, cfg.Classifier.InputCeiling)
	assert.Equal(t, "sample", cfg.Providers.Active)
	assert.Equal(t, []string{"title", "description", "tags", "category"}, cfg.Search.SearchableFields)
	assert.Equal(t, 10, cfg.Search.MaxDisplayResults)
	assert.Equal(t, "catalog:items", cfg.Providers.Redis.ItemsKey)
	assert.Equal(t, "console", cfg.SessionLog.Backend)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadFromFile_ExplicitValues(t *testing.T) {
	path := writeConfigFile(t, `
agent:
  name: learning-bot
  error_mode: technical
classifier:
  backend: anthropic
  model: claude-3-5-sonnet-20241022
  input_ceiling: 500
search:
  category_aliases:
    coding:
      - Programming
  generic_keywords:
    - training
    - course
providers:
  active: redis
  redis:
    address: localhost:6379
    items_key: my:items
delivery:
  enabled: true
  channel: "#learning"
  timeout: 2500
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "learning-bot", cfg.Agent.Name)
	assert.Equal(t, "technical", cfg.Agent.ErrorMode)
	assert.Equal(t, "anthropic", cfg.Classifier.Backend)
	assert.Equal(t, 500, cfg.Classifier.InputCeiling)
	assert.Equal(t, []string{"Programming"}, cfg.Search.CategoryAliases["coding"])
	assert.Equal(t, "redis", cfg.Providers.Active)
	assert.Equal(t, "my:items", cfg.Providers.Redis.ItemsKey)
	assert.True(t, cfg.Delivery.Enabled)
	assert.Equal(t, 2500*time.Millisecond, GetDuration(cfg.Delivery.TimeoutMillis))
}

func TestLoadFromFile_StaticProviderItems(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  active: static
  static:
    items:
      - title: Go for Backend Engineers
        category: Programming
      - title: Kubernetes Fundamentals
        category: Operations
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "static", cfg.Providers.Active)
	require.Len(t, cfg.Providers.Static.Items, 2)
	assert.Equal(t, "Go for Backend Engineers", cfg.Providers.Static.Items[0]["title"])
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_URL", "https://hooks.example.com/T1/B2")

	path := writeConfigFile(t, `
delivery:
  enabled: true
  webhook_url: ${TEST_WEBHOOK_URL}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/T1/B2", cfg.Delivery.WebhookURL)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr string
	}{
		{
			name: "unknown classifier backend",
			content: `
classifier:
  backend: bard
`,
			expectedErr: "classifier.backend",
		},
		{
			name: "unknown error mode",
			content: `
agent:
  error_mode: cryptic
`,
			expectedErr: "agent.error_mode",
		},
		{
			name: "unknown provider",
			content: `
providers:
  active: carrier-pigeon
`,
			expectedErr: "not a known provider",
		},
		{
			name: "multi provider without inner list",
			content: `
providers:
  active: multi
`,
			expectedErr: "at least one inner provider",
		},
		{
			name: "static provider without items",
			content: `
providers:
  active: static
`,
			expectedErr: "providers.static.items",
		},
		{
			name: "http provider without url",
			content: `
providers:
  active: http
`,
			expectedErr: "providers.http.url",
		},
		{
			name: "sheets provider without spreadsheet id",
			content: `
providers:
  active: sheets
`,
			expectedErr: "spreadsheet_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadFromFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	cfg := PostgresProviderConfig{
		Host:     "db.internal",
		Port:     5432,
		Database: "catalog",
		User:     "agent",
		Password: "s3cret",
		SSLMode:  "require",
	}
	dsn := cfg.GetDSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=catalog")
	assert.Contains(t, dsn, "sslmode=require")
}
