package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/lumenhost/lumen/internal/shared/config"
)

type Config struct {
	Server       sharedConfig.ServerConfig       `mapstructure:"server"`
	Database     sharedConfig.DatabaseConfig     `mapstructure:"database"`
	Logger       sharedConfig.LoggerConfig       `mapstructure:"logger"`
	Redis        sharedConfig.RedisConfig        `mapstructure:"redis"`
	SMTP         sharedConfig.SMTPConfig         `mapstructure:"smtp"`
	Subscription sharedConfig.SubscriptionConfig `mapstructure:"subscription"`
	Provisioning sharedConfig.ProvisioningConfig `mapstructure:"provisioning"`
	Scheduler    sharedConfig.SchedulerConfig    `mapstructure:"scheduler"`
	Runtime      sharedConfig.RuntimeConfig      `mapstructure:"runtime"`
	Invoicing    sharedConfig.InvoicingConfig    `mapstructure:"invoicing"`
	Plan         sharedConfig.PlanConfig         `mapstructure:"plan"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("LUMEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus environment variables are enough to run without a file.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.timezone", "UTC")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "lumen_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// SMTP defaults (must be configured for notifications to send)
	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from_address", "noreply@lumenhost.dev")
	viper.SetDefault("smtp.from_name", "Lumen Host")
	viper.SetDefault("smtp.portal_url", "https://portal.lumenhost.dev")
	viper.SetDefault("smtp.ops_address", "ops@lumenhost.dev")

	// Subscription defaults
	viper.SetDefault("subscription.grace_period_days", 7)
	viper.SetDefault("subscription.trial_days", 14)

	// Provisioning defaults
	viper.SetDefault("provisioning.workers", 4)
	viper.SetDefault("provisioning.max_attempts", 5)
	viper.SetDefault("provisioning.attempt_timeout_seconds", 300)
	viper.SetDefault("provisioning.poll_interval_seconds", 10)

	// Scheduler defaults
	viper.SetDefault("scheduler.billing_interval_hours", 24)
	viper.SetDefault("scheduler.cleanup_interval_hours", 24)

	// Runtime agent defaults
	viper.SetDefault("runtime.agent_url", "http://localhost:9090")
	viper.SetDefault("runtime.agent_token", "")
	viper.SetDefault("runtime.timeout_seconds", 60)
	viper.SetDefault("runtime.base_domain", "lumenhost.dev")

	// Invoicing service defaults
	viper.SetDefault("invoicing.service_url", "")
	viper.SetDefault("invoicing.timeout_seconds", 30)

	// Plan catalog defaults
	viper.SetDefault("plan.catalog_path", "./configs/plans.yaml")
}
