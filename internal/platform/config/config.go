package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/lueurxax/portfolio-tagger/internal/core/errors"
)

// Store driver names.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// AppEnvLocal is the APP_ENV value for developer machines.
const AppEnvLocal = "local"

// LLM provider names accepted by LLM_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderMock      = "mock"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`

	// TrustedProxies lists CIDRs or IPs whose X-Forwarded-For / X-Real-IP headers are honored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Storage
	StoreDriver         string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	SQLitePath          string        `env:"SQLITE_PATH" envDefault:"./tagger.db"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Language model
	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMModel        string `env:"LLM_MODEL"`
	LLMMaxTokens    int64  `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	RateLimitRPS    int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Tag generation
	TaggingMaxRetries int           `env:"TAGGING_MAX_RETRIES" envDefault:"5"`
	TaggingBaseDelay  time.Duration `env:"TAGGING_BASE_DELAY" envDefault:"1s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected driver and provider have what they need.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: POSTGRES_DSN is required for the postgres driver", apperrors.ErrInvalidConfig)
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite driver", apperrors.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", apperrors.ErrInvalidConfig, c.StoreDriver)
	}

	switch c.LLMProvider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderMock:
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", apperrors.ErrInvalidConfig, c.LLMProvider)
	}

	if c.MissingProviderKey() && !c.IsLocal() {
		return fmt.Errorf("%w: no API key for LLM_PROVIDER %q outside APP_ENV=%s", apperrors.ErrInvalidConfig, c.LLMProvider, AppEnvLocal)
	}

	if c.TaggingMaxRetries <= 0 {
		return fmt.Errorf("%w: TAGGING_MAX_RETRIES must be positive", apperrors.ErrInvalidConfig)
	}

	return nil
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.AppEnv == AppEnvLocal
}

// MissingProviderKey reports whether a real provider is selected without its API key.
func (c *Config) MissingProviderKey() bool {
	return c.LLMProvider != ProviderMock && c.APIKeyFor(c.LLMProvider) == ""
}

// APIKeyFor returns the API key configured for the given provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGoogle:
		return c.GoogleAPIKey
	default:
		return ""
	}
}

func applyLegacyAliases(cfg *Config) {
	if !hasEnv("ANTHROPIC_API_KEY") {
		setStringFromEnv("CLAUDE_API_KEY", &cfg.AnthropicAPIKey)
	}

	if !hasEnv("LLM_MODEL") {
		setStringFromEnv("CLAUDE_MODEL", &cfg.LLMModel)
	}

	if !hasEnv("TAGGING_MAX_RETRIES") {
		setIntFromEnv("MAX_RETRIES", &cfg.TaggingMaxRetries)
	}
}

// hasEnv treats an empty variable as unset so aliases still apply.
func hasEnv(key string) bool {
	val, ok := os.LookupEnv(key)
	return ok && strings.TrimSpace(val) != ""
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
