// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultSessionSecret = "forum-dev-secret-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	// DatabaseURL is the single store-location value: a SQLite file path
	// or a PostgreSQL URI / keyword DSN.
	DatabaseURL            string  `mapstructure:"DATABASE_URL"`
	Port                   string  `mapstructure:"PORT"`
	Env                    string  `mapstructure:"APP_ENV"`
	LogLevel               string  `mapstructure:"LOG_LEVEL"`
	SessionSecret          string  `mapstructure:"SESSION_SECRET"`
	SessionTTLHours        int     `mapstructure:"SESSION_TTL_HOURS"`
	RedisURL               string  `mapstructure:"REDIS_URL"`
	AllowedOrigins         string  `mapstructure:"ALLOWED_ORIGINS"`
	AdminUsername          string  `mapstructure:"ADMIN_USERNAME"`
	AdminEmail             string  `mapstructure:"ADMIN_EMAIL"`
	AdminPassword          string  `mapstructure:"ADMIN_PASSWORD"`
	SeedDefaults           bool    `mapstructure:"SEED_DEFAULTS"`
	DBMaxOpenConns         int     `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns         int     `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMins  int     `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	TracingEnabled         bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter        string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint           string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio     float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
	RateLimitAuthPerMinute int     `mapstructure:"RATE_LIMIT_AUTH_PER_MINUTE"`
	FeatureFlags           string  `mapstructure:"FEATURE_FLAGS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("DATABASE_URL", "forum.db")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SESSION_SECRET", defaultSessionSecret)
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	viper.SetDefault("ADMIN_USERNAME", "")
	viper.SetDefault("ADMIN_EMAIL", "")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("SEED_DEFAULTS", true)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("RATE_LIMIT_AUTH_PER_MINUTE", 10)
	viper.SetDefault("FEATURE_FLAGS", "topic_feed=on,registration=on")
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.SessionTTLHours <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	if c.IsProduction() {
		if c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if c.RedisURL == "" {
			log.Println("WARNING: REDIS_URL is empty in production. Logout revocation and rate limiting are disabled.")
		}
	} else if len(c.SessionSecret) < 32 {
		log.Println("WARNING: SESSION_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// SessionTTL returns the lifetime of an issued session token.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ConnMaxLifetime returns the pool connection lifetime.
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeMins) * time.Minute
}

// Origins splits ALLOWED_ORIGINS into trimmed entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
