package config

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// ServerConfig contains HTTP server and logging settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig contains PostgreSQL connection settings. URL is required
// when the storage driver is postgres.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
}

// AuthConfig contains bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// AdminRole is the value in the token's roles claim that marks a platform admin.
	AdminRole string `mapstructure:"admin_role" validate:"required"`
	// UserClaim names the claim holding the user id.
	UserClaim string `mapstructure:"user_claim" validate:"required"`
}

// CacheConfig configures the Redis catalog cache. An empty RedisURL disables it.
type CacheConfig struct {
	RedisURL          string `mapstructure:"redis_url"           validate:"omitempty,url"`
	CatalogTTLSeconds int    `mapstructure:"catalog_ttl_seconds" validate:"gte=1"`
}

// TracingConfig toggles OpenTelemetry request spans.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
}
