package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	CaseLog     CaseLogConfig   `mapstructure:"case_log"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Clinical    ClinicalConfig  `mapstructure:"clinical"`
	Knowledge   KnowledgeConfig `mapstructure:"knowledge"`
	MCP         MCPConfig       `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CaseLogConfig bounds the in-memory log of recent consults.
type CaseLogConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	MaxItems int           `mapstructure:"max_items"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig configures the per-client token bucket on the HTTP API.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ClinicalConfig holds the tunable clinical thresholds used by the normalizer.
type ClinicalConfig struct {
	BradycardiaTempF   float64 `mapstructure:"bradycardia_temp_f"`
	BradycardiaMaxHR   int     `mapstructure:"bradycardia_max_hr"`
	ProlongedFeverDays int     `mapstructure:"prolonged_fever_days"`
	DefaultRegion      string  `mapstructure:"default_region"`
}

// KnowledgeConfig points at an optional YAML knowledge-base file replacing the built-in table.
type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}

// Default clinical thresholds.
const (
	DefaultBradycardiaTempF   = 102.0
	DefaultBradycardiaMaxHR   = 100
	DefaultProlongedFeverDays = 21
	DefaultRegion             = "Missouri"
)

// DefaultClinicalConfig returns the canonical thresholds.
func DefaultClinicalConfig() ClinicalConfig {
	return ClinicalConfig{
		BradycardiaTempF:   DefaultBradycardiaTempF,
		BradycardiaMaxHR:   DefaultBradycardiaMaxHR,
		ProlongedFeverDays: DefaultProlongedFeverDays,
		DefaultRegion:      DefaultRegion,
	}
}
