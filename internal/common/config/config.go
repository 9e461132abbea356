package config

import (
	"fmt"
	"time"
)

// Config is the fully-resolved agent configuration. It is built once by the
// loader and treated as immutable for the lifetime of every request.
type Config struct {
	Agent      AgentConfig      `mapstructure:"agent"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Generative GenerativeConfig `mapstructure:"generative"`
	Search     SearchConfig     `mapstructure:"search"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Delivery   DeliveryConfig   `mapstructure:"delivery"`
	SessionLog SessionLogConfig `mapstructure:"session_log"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
}

// AgentConfig identifies the agent instance and controls the fallback policy.
type AgentConfig struct {
	Name            string `mapstructure:"name"`
	Description     string `mapstructure:"description"`
	Version         string `mapstructure:"version"`
	DefaultLanguage string `mapstructure:"default_language"`
	HelpIntent      string `mapstructure:"help_intent"`
	// ErrorMode selects the fallback response style: "technical" echoes the
	// error code and message, "friendly" returns an agent-branded apology.
	ErrorMode string `mapstructure:"error_mode"`

	// CatalogFile and TemplatesFile point at optional YAML definitions;
	// built-in defaults are used when empty.
	CatalogFile   string `mapstructure:"catalog_file"`
	TemplatesFile string `mapstructure:"templates_file"`
}

// ClassifierConfig holds settings for the intent classification backend.
type ClassifierConfig struct {
	Backend       string  `mapstructure:"backend"` // "openai" or "anthropic"
	Model         string  `mapstructure:"model"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"`
	InputCeiling  int     `mapstructure:"input_ceiling"` // characters
	TimeoutMillis int     `mapstructure:"timeout"`
}

// GenerativeConfig controls the natural-language rendering path for
// results_found responses. When disabled the template path is used directly.
type GenerativeConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Model         string  `mapstructure:"model"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxSampleRows int     `mapstructure:"max_sample_rows"`
}

// SearchConfig holds the domain extension maps used by the content retriever.
type SearchConfig struct {
	CategoryAliases   map[string][]string `mapstructure:"category_aliases"`
	RoleAliases       map[string][]string `mapstructure:"role_aliases"`
	LevelEquivalents  map[string][]string `mapstructure:"level_equivalents"`
	SearchableFields  []string            `mapstructure:"searchable_fields"`
	RoleSearchFields  []string            `mapstructure:"role_search_fields"`
	TypeFields        []string            `mapstructure:"type_fields"`
	GenericKeywords   []string            `mapstructure:"generic_keywords"`
	MaxResults        int                 `mapstructure:"max_results"`
	MaxDisplayResults int                 `mapstructure:"max_display_results"`
	DefaultSortField  string              `mapstructure:"default_sort_field"`
	StampProvenance   bool                `mapstructure:"stamp_provenance"`
}

// ProvidersConfig configures the available data provider variants. The
// active provider is selected by name; multi aggregates an ordered list.
type ProvidersConfig struct {
	Active string   `mapstructure:"active"`
	Multi  []string `mapstructure:"multi"`

	Static        StaticProviderConfig   `mapstructure:"static"`
	HTTP          HTTPProviderConfig     `mapstructure:"http"`
	Sheets        SheetsConfig           `mapstructure:"sheets"`
	Redis         RedisConfig            `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig    `mapstructure:"elasticsearch"`
	Postgres      PostgresProviderConfig `mapstructure:"postgres"`
}

// StaticProviderConfig inlines a fixed item collection in the config file.
type StaticProviderConfig struct {
	Items []map[string]interface{} `mapstructure:"items"`
}

// HTTPProviderConfig configures the remote-HTTP provider.
type HTTPProviderConfig struct {
	URL       string            `mapstructure:"url"`
	Headers   map[string]string `mapstructure:"headers"`
	AuthType  string            `mapstructure:"auth_type"` // "bearer", "api_key" or ""
	AuthToken string            `mapstructure:"auth_token"`
	// ItemsPath is a dotted path locating the item array inside the response
	// envelope, e.g. "data.items". Empty means the body is the array itself.
	ItemsPath     string `mapstructure:"items_path"`
	TimeoutMillis int    `mapstructure:"timeout"`
}

// SheetsConfig configures the spreadsheet-backed provider and log sink.
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	DataRange       string `mapstructure:"data_range"`
	LogSheetName    string `mapstructure:"log_sheet_name"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	ItemsKey string `mapstructure:"items_key"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	MaxDocs   int      `mapstructure:"max_docs"`
}

type PostgresProviderConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Query    string `mapstructure:"query"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresProviderConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// DeliveryConfig holds the delivery toggles and targets.
type DeliveryConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Channel       string   `mapstructure:"channel"`
	WebhookURL    string   `mapstructure:"webhook_url"`
	MentionPrefix string   `mapstructure:"mention_prefix"`
	ThreadReplies bool     `mapstructure:"thread_replies"`
	FanoutURLs    []string `mapstructure:"fanout_urls"`
	TimeoutMillis int      `mapstructure:"timeout"`

	SNS SNSConfig `mapstructure:"sns"`
}

type SNSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// SessionLogConfig controls session record persistence.
type SessionLogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"` // "sheets" or "console"
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds the HTTP listener settings for the agent runner.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
