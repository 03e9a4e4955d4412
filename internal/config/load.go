package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TASKMANAGER_DATABASE_URL.
const EnvPrefix = "TASKMANAGER"

// ConfigFileEnv names the variable that points at an explicit config file.
const ConfigFileEnv = EnvPrefix + "_CONFIG"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the file.
// Returns a populated Config struct or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct tag validation plus the cross-section rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Storage.Driver == "postgres" && cfg.Database.URL == "" {
		return fmt.Errorf("config validation failed: database.url is required for the postgres storage driver")
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("storage.driver", "postgres")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_role", "ROLE_ADMIN")
	v.SetDefault("auth.user_claim", "preferred_username")

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.catalog_ttl_seconds", 300)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "taskmanager")
}
