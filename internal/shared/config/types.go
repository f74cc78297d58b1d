// Package config defines the typed configuration structures shared by the
// server, the worker and the CLI. Values are populated by viper from
// configs/config.yaml and LUMEN_* environment variables.
package config

import "fmt"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	Timezone string `mapstructure:"timezone"`
}

// GetAddr returns the listen address in host:port form
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig holds redis connection configuration. Redis carries the
// provisioning queue wake-up channel between the API process and the worker.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GetAddr returns the redis address in host:port form
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPConfig holds SMTP settings for outbound notifications
type SMTPConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	PortalURL   string `mapstructure:"portal_url"`
	// OpsAddress receives lifecycle notifications. Customer-facing delivery
	// happens in the portal, which owns contact details.
	OpsAddress string `mapstructure:"ops_address"`
}

// SubscriptionConfig holds commercial lifecycle knobs
type SubscriptionConfig struct {
	// GracePeriodDays is the interval between cancellation and instance
	// termination during which data is retained.
	GracePeriodDays int `mapstructure:"grace_period_days"`
	TrialDays       int `mapstructure:"trial_days"`
}

// ProvisioningConfig holds queue and worker pool settings
type ProvisioningConfig struct {
	Workers               int `mapstructure:"workers"`
	MaxAttempts           int `mapstructure:"max_attempts"`
	AttemptTimeoutSeconds int `mapstructure:"attempt_timeout_seconds"`
	PollIntervalSeconds   int `mapstructure:"poll_interval_seconds"`
}

// SchedulerConfig holds reconciliation job intervals
type SchedulerConfig struct {
	BillingIntervalHours int `mapstructure:"billing_interval_hours"`
	CleanupIntervalHours int `mapstructure:"cleanup_interval_hours"`
}

// RuntimeConfig holds the runtime provisioner agent endpoint
type RuntimeConfig struct {
	AgentURL       string `mapstructure:"agent_url"`
	AgentToken     string `mapstructure:"agent_token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	BaseDomain     string `mapstructure:"base_domain"`
}

// InvoicingConfig holds the external invoicing service endpoint. When the
// URL is empty the basic-invoice fallback path is used.
type InvoicingConfig struct {
	ServiceURL     string `mapstructure:"service_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PlanConfig points at the plan catalog file
type PlanConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}
