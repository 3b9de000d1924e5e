package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fuo-consult-server/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. FUO_SERVER_PORT.
const EnvPrefix = "FUO"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	file   string
	config *domain.Config
}

// NewManager creates a new configuration manager. The config file is optional; defaults
// and environment variables apply without one.
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a configuration manager reading an explicit file. An empty
// path searches the default locations.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{file: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/fuo-consult/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Case log defaults
	v.SetDefault("case_log.enabled", true)
	v.SetDefault("case_log.max_items", 200)
	v.SetDefault("case_log.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	// Clinical defaults
	v.SetDefault("clinical.bradycardia_temp_f", domain.DefaultBradycardiaTempF)
	v.SetDefault("clinical.bradycardia_max_hr", domain.DefaultBradycardiaMaxHR)
	v.SetDefault("clinical.prolonged_fever_days", domain.DefaultProlongedFeverDays)
	v.SetDefault("clinical.default_region", domain.DefaultRegion)

	// Knowledge base defaults (empty path uses the built-in table)
	v.SetDefault("knowledge.path", "")

	// MCP defaults
	v.SetDefault("mcp.server_name", "fuo-consult-server")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetClinicalConfig returns the clinical thresholds
func (m *Manager) GetClinicalConfig() *domain.ClinicalConfig {
	return &m.config.Clinical
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if f := strings.ToLower(config.Logging.Format); f != "json" && f != "text" {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	if config.CaseLog.Enabled {
		if config.CaseLog.MaxItems <= 0 {
			return fmt.Errorf("case log max_items must be positive: %d", config.CaseLog.MaxItems)
		}
		if config.CaseLog.TTL <= 0 {
			return fmt.Errorf("case log ttl must be positive: %s", config.CaseLog.TTL)
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive: %v", config.RateLimit.RequestsPerSecond)
		}
		if config.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive: %d", config.RateLimit.Burst)
		}
	}

	c := config.Clinical
	if c.BradycardiaTempF < 95 || c.BradycardiaTempF > 110 {
		return fmt.Errorf("clinical bradycardia_temp_f out of range: %.1f", c.BradycardiaTempF)
	}
	if c.BradycardiaMaxHR <= 0 {
		return fmt.Errorf("clinical bradycardia_max_hr must be positive: %d", c.BradycardiaMaxHR)
	}
	if c.ProlongedFeverDays <= 0 {
		return fmt.Errorf("clinical prolonged_fever_days must be positive: %d", c.ProlongedFeverDays)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
