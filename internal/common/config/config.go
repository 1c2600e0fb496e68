// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	APIs          APIsConfig         `mapstructure:"apis"`
	Scoring       ScoringConfig      `mapstructure:"scoring"`
	Translation   TranslationConfig  `mapstructure:"translation"`
	Scenarios     ScenariosConfig    `mapstructure:"scenarios"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Search        SearchConfig       `mapstructure:"search"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Specific Configuration Sections ---

// APIsConfig holds settings for the external GenAI service endpoints.
type APIsConfig struct {
	GenAI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"genai"`
}

// ScoringConfig is the immutable scoring policy passed into the
// orchestrator at invocation start. Nothing in the pipeline re-reads
// configuration mid-flight.
type ScoringConfig struct {
	PenaltyPercent     float64 `mapstructure:"penalty_percent"`
	MaxFollowUps       int     `mapstructure:"max_follow_ups"`
	MaxRetries         int     `mapstructure:"max_retries"`
	RateLimitBackoff   int     `mapstructure:"rate_limit_backoff"`   // milliseconds per attempt
	OverloadBackoff    int     `mapstructure:"overload_backoff"`     // milliseconds per attempt
	BatchDeadline      int     `mapstructure:"batch_deadline"`       // milliseconds, scenario-fallback tier
	PerTurnConcurrency int     `mapstructure:"per_turn_concurrency"` // per-question-fallback tier
	ScenarioPause      int     `mapstructure:"scenario_pause"`       // milliseconds between scenarios
}

type TranslationConfig struct {
	TargetLanguage string `mapstructure:"target_language"`
	Concurrency    int    `mapstructure:"concurrency"`
	CacheTTL       int    `mapstructure:"cache_ttl"` // seconds
}

type ScenariosConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationConfig holds settings for report-ready notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		AdminEmail string `mapstructure:"admin_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled     bool   `mapstructure:"enabled"`
		AdminNumber string `mapstructure:"admin_number"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type SearchConfig struct {
	ReportIndex string `mapstructure:"report_index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
