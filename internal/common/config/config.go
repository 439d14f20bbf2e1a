// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Lexicons      LexiconConfig       `mapstructure:"lexicons"`
	Matcher       MatcherConfig       `mapstructure:"matcher"`
	Classifier    ClassifierConfig    `mapstructure:"classifier"`
	Stages        StagesConfig        `mapstructure:"stages"`
	Clarification ClarificationConfig `mapstructure:"clarification"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MetricsAddress  string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Domain Configuration Sections ---

// LexiconConfig points at the on-disk lexicon files and their schema.
type LexiconConfig struct {
	Dir        string `mapstructure:"dir"`
	SchemaPath string `mapstructure:"schema_path"`
}

// MatcherConfig holds entity matching thresholds. Scores are 0-100.
type MatcherConfig struct {
	FuzzyThreshold  float64 `mapstructure:"fuzzy_threshold"`
	FuzzyMargin     float64 `mapstructure:"fuzzy_margin"`
	MaxNGram        int     `mapstructure:"max_ngram"`
	AliasCacheTTL   int     `mapstructure:"alias_cache_ttl"`   // seconds
	MatcherCacheMax int     `mapstructure:"matcher_cache_max"` // cached matcher instances per domain
}

// ClassifierConfig holds settings for the external token classifier API.
type ClassifierConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// StagesConfig holds per-stage advisory timing budgets, in milliseconds.
// Exceeding a budget is logged and counted, never aborted.
type StagesConfig struct {
	NormalizeBudget int `mapstructure:"normalize_budget"`
	MatchBudget     int `mapstructure:"match_budget"`
	GroupBudget     int `mapstructure:"group_budget"`
	StructureBudget int `mapstructure:"structure_budget"`
	SemanticBudget  int `mapstructure:"semantic_budget"`
	ResolveBudget   int `mapstructure:"resolve_budget"` // whole pipeline
}

// ClarificationConfig holds settings for pending disambiguation state.
type ClarificationConfig struct {
	StateTTL        int     `mapstructure:"state_ttl"` // seconds
	MaxOptions      int     `mapstructure:"max_options"`
	ReplyThreshold  float64 `mapstructure:"reply_threshold"`  // 0-100
	SelectionMargin float64 `mapstructure:"selection_margin"` // 0-100, top-two separation
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
