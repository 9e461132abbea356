package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load builds the fully-resolved configuration from layered sources:
// base file, environment-specific file, environment variable expansion,
// defaults, then validation. The result is a single immutable snapshot;
// nothing mutates it at runtime.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay file is optional

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if strVal, ok := v.Get(key).(string); ok {
			if strings.Contains(strVal, "${") {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Agent.Name == "" {
		cfg.Agent.Name = "catalog-agent"
	}
	if cfg.Agent.DefaultLanguage == "" {
		cfg.Agent.DefaultLanguage = "en"
	}
	if cfg.Agent.HelpIntent == "" {
		cfg.Agent.HelpIntent = "help"
	}
	if cfg.Agent.ErrorMode == "" {
		cfg.Agent.ErrorMode = "friendly"
	}

	if cfg.Classifier.Backend == "" {
		cfg.Classifier.Backend = "openai"
	}
	if cfg.Classifier.MaxTokens == 0 {
		cfg.Classifier.MaxTokens = 500
	}
	if cfg.Classifier.Temperature == 0 {
		cfg.Classifier.Temperature = 0.2
	}
	if cfg.Classifier.InputCeiling == 0 {
		cfg.Classifier.InputCeiling = 1000
	}
	if cfg.Classifier.TimeoutMillis == 0 {
		cfg.Classifier.TimeoutMillis = 30000
	}

	if cfg.Generative.MaxTokens == 0 {
		cfg.Generative.MaxTokens = 700
	}
	if cfg.Generative.Temperature == 0 {
		cfg.Generative.Temperature = 0.7
	}
	if cfg.Generative.MaxSampleRows == 0 {
		cfg.Generative.MaxSampleRows = 5
	}

	if len(cfg.Search.SearchableFields) == 0 {
		cfg.Search.SearchableFields = []string{"title", "description", "tags", "category"}
	}
	if len(cfg.Search.RoleSearchFields) == 0 {
		cfg.Search.RoleSearchFields = []string{"title", "description", "tags"}
	}
	if len(cfg.Search.TypeFields) == 0 {
		cfg.Search.TypeFields = []string{"type", "format"}
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 50
	}
	if cfg.Search.MaxDisplayResults == 0 {
		cfg.Search.MaxDisplayResults = 10
	}

	if cfg.Providers.Active == "" {
		cfg.Providers.Active = "sample"
	}
	if cfg.Providers.HTTP.TimeoutMillis == 0 {
		cfg.Providers.HTTP.TimeoutMillis = 10000
	}
	if cfg.Providers.Sheets.DataRange == "" {
		cfg.Providers.Sheets.DataRange = "Data!A1:Z"
	}
	if cfg.Providers.Sheets.LogSheetName == "" {
		cfg.Providers.Sheets.LogSheetName = "Sessions"
	}
	if cfg.Providers.Redis.ItemsKey == "" {
		cfg.Providers.Redis.ItemsKey = "catalog:items"
	}
	if cfg.Providers.Elasticsearch.MaxDocs == 0 {
		cfg.Providers.Elasticsearch.MaxDocs = 500
	}
	if cfg.Providers.Postgres.SSLMode == "" {
		cfg.Providers.Postgres.SSLMode = "disable"
	}

	if cfg.Delivery.TimeoutMillis == 0 {
		cfg.Delivery.TimeoutMillis = 5000
	}

	if cfg.SessionLog.Backend == "" {
		cfg.SessionLog.Backend = "console"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	switch cfg.Classifier.Backend {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("classifier.backend must be openai or anthropic, got %q", cfg.Classifier.Backend)
	}

	switch cfg.Agent.ErrorMode {
	case "technical", "friendly":
	default:
		return fmt.Errorf("agent.error_mode must be technical or friendly, got %q", cfg.Agent.ErrorMode)
	}

	switch cfg.Providers.Active {
	case "sample", "static", "http", "sheets", "redis", "elasticsearch", "postgres", "multi":
	default:
		return fmt.Errorf("providers.active %q is not a known provider", cfg.Providers.Active)
	}

	if cfg.Providers.Active == "multi" && len(cfg.Providers.Multi) == 0 {
		return fmt.Errorf("providers.multi requires at least one inner provider")
	}

	if cfg.Providers.Active == "static" && len(cfg.Providers.Static.Items) == 0 {
		return fmt.Errorf("providers.static.items is required for the static provider")
	}

	if cfg.Providers.Active == "http" && cfg.Providers.HTTP.URL == "" {
		return fmt.Errorf("providers.http.url is required for the http provider")
	}

	if cfg.Providers.Active == "sheets" && cfg.Providers.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("providers.sheets.spreadsheet_id is required for the sheets provider")
	}

	return nil
}
