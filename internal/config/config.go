package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "your-secret-key-change-in-production"
	defaultWebhookSecret = "your-webhook-secret-change-in-production"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        string `mapstructure:"PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Database configuration
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	DatabaseHost     string `mapstructure:"DB_HOST"`
	DatabasePort     string `mapstructure:"DB_PORT"`
	DatabaseUser     string `mapstructure:"DB_USER"`
	DatabasePassword string `mapstructure:"DB_PASSWORD"`
	DatabaseName     string `mapstructure:"DB_NAME"`
	DatabaseSSLMode  string `mapstructure:"DB_SSL_MODE"`

	// Identity provider configuration
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTIssuer             string `mapstructure:"JWT_ISSUER"`
	IdentityWebhookSecret string `mapstructure:"IDENTITY_WEBHOOK_SECRET"`

	// CORS configuration
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	// Frontend and media
	FrontendBaseURL string `mapstructure:"FRONTEND_BASE_URL"`
	MediaRoot       string `mapstructure:"MEDIA_ROOT"`
	MediaBaseURL    string `mapstructure:"MEDIA_BASE_URL"`

	// Loops (transactional email + contacts)
	LoopsAPIKey                    string `mapstructure:"LOOPS_API_KEY"`
	LoopsBaseURL                   string `mapstructure:"LOOPS_BASE_URL"`
	LoopsInvitationTransactionalID string `mapstructure:"LOOPS_INVITATION_TRANSACTIONAL_ID"`

	// Email dispatch
	EmailWorkers   int `mapstructure:"EMAIL_WORKERS"`
	EmailQueueSize int `mapstructure:"EMAIL_QUEUE_SIZE"`

	// Invitations
	InvitationResendCooldown time.Duration `mapstructure:"INVITATION_RESEND_COOLDOWN"`

	// Metrics
	MetricsPrefix string `mapstructure:"METRICS_PREFIX"`
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = buildDatabaseURL(&config)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("LOG_LEVEL", "info")

	// Database defaults
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "tenancy")
	viper.SetDefault("DB_SSL_MODE", "disable")

	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("IDENTITY_WEBHOOK_SECRET", defaultWebhookSecret)

	viper.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"})

	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:5173")
	viper.SetDefault("MEDIA_ROOT", "./media")
	viper.SetDefault("MEDIA_BASE_URL", "/media")

	viper.SetDefault("LOOPS_API_KEY", "")
	viper.SetDefault("LOOPS_BASE_URL", "https://app.loops.so/api/v1")
	viper.SetDefault("LOOPS_INVITATION_TRANSACTIONAL_ID", "")

	viper.SetDefault("EMAIL_WORKERS", 2)
	viper.SetDefault("EMAIL_QUEUE_SIZE", 100)

	viper.SetDefault("INVITATION_RESEND_COOLDOWN", "24h")

	viper.SetDefault("METRICS_PREFIX", "tenancy")
}

func buildDatabaseURL(config *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		config.DatabaseUser,
		config.DatabasePassword,
		config.DatabaseHost,
		config.DatabasePort,
		config.DatabaseName,
		config.DatabaseSSLMode,
	)
}

func validate(config *Config) error {
	if config.Environment == "production" {
		if config.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if config.IdentityWebhookSecret == defaultWebhookSecret {
			return fmt.Errorf("IDENTITY_WEBHOOK_SECRET must be set in production")
		}
		if config.LoopsAPIKey == "" {
			return fmt.Errorf("LOOPS_API_KEY must be set in production")
		}
	}

	if config.DatabaseName == "" {
		return fmt.Errorf("database name is required")
	}

	if config.InvitationResendCooldown <= 0 {
		return fmt.Errorf("INVITATION_RESEND_COOLDOWN must be positive")
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
