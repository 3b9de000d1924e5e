package domain

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetClinicalConfig() *ClinicalConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
