// Package config defines and loads application configuration.
package config

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs" validate:"required"`
	Health   HealthConfig   `mapstructure:"health" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains token verification settings. Tokens are issued by
// the platform's identity service; only the shared secret lives here.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// SRSConfig contains scheduler settings.
type SRSConfig struct {
	MaxIntervalDays int `mapstructure:"max_interval_days" validate:"required,gt=0,lte=3650"`
}

// HealthConfig contains health-metric, cache and quick-action settings.
type HealthConfig struct {
	// OverloadThreshold is the overdue-to-due ratio above which a scope is
	// flagged overloaded.
	OverloadThreshold float64 `mapstructure:"overload_threshold" validate:"required,gt=0,lt=1"`

	// GracePeriodHours is how far past due a card must be to count as
	// overdue. The rollup views bake the 24-hour default into their SQL,
	// so overriding this without migrating them desynchronizes the
	// materialized overdue counts from live queries.
	GracePeriodHours int `mapstructure:"grace_period_hours" validate:"gte=0,lte=168"`

	// CacheTTLSeconds is the metrics cache entry lifetime.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`

	// StaleAfterMinutes is the rollup age beyond which reads fall back to
	// live queries.
	StaleAfterMinutes int `mapstructure:"stale_after_minutes" validate:"required,gt=0"`

	// DefaultCardLimit is the session and load-reduction cap used when a
	// request supplies none.
	DefaultCardLimit int `mapstructure:"default_card_limit" validate:"required,gt=0"`

	// MaxDeferDays caps how far a reduce_load action may push cards out.
	MaxDeferDays int `mapstructure:"max_defer_days" validate:"required,gt=0,lte=30"`

	// StuckActionMinutes is how old a pending quick action must be before
	// a retry may claim it.
	StuckActionMinutes int `mapstructure:"stuck_action_minutes" validate:"required,gt=0"`
}
