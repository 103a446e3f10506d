package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/skynet/pkg/skynet"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the CLI and bridge service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80" validate:"min=1,max=65535"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Skynet
	SkynetUsername      string        `envconfig:"SKYNET_USERNAME"`
	SkynetPassword      string        `envconfig:"SKYNET_PASSWORD"`
	SkynetSystemID      string        `envconfig:"SKYNET_SYSTEM_ID"`
	SkynetAccountNumber string        `envconfig:"SKYNET_ACCOUNT_NUMBER"`
	SkynetBaseURL       string        `envconfig:"SKYNET_BASE_URL" default:"https://api.skynet.co.za:3227/api/" validate:"required,url"`
	SkynetTimeout       time.Duration `envconfig:"SKYNET_TIMEOUT" default:"30s" validate:"min=0"`
	SkynetTokenPayload  string        `envconfig:"SKYNET_TOKEN_PAYLOAD" default:"string" validate:"oneof=string response"`
	SkynetTokenCacheTTL time.Duration `envconfig:"SKYNET_TOKEN_CACHE_TTL" default:"0s" validate:"min=0"`
	SkynetUseMock       bool          `envconfig:"SKYNET_USE_MOCK" default:"false"`

	// TrackConcurrency bounds parallel tracking calls in batch requests.
	TrackConcurrency int `envconfig:"SKYNET_TRACK_CONCURRENCY" default:"4" validate:"min=1"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"skynet"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

var validate = validator.New()

// Load reads configuration from an optional .env file and the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireCredentials reports the first missing Skynet credential.
// Mock mode needs none.
func (c *Config) RequireCredentials() error {
	if c.SkynetUseMock {
		return nil
	}
	for _, v := range []struct{ name, value string }{
		{"SKYNET_USERNAME", c.SkynetUsername},
		{"SKYNET_PASSWORD", c.SkynetPassword},
		{"SKYNET_SYSTEM_ID", c.SkynetSystemID},
		{"SKYNET_ACCOUNT_NUMBER", c.SkynetAccountNumber},
	} {
		if v.value == "" {
			return fmt.Errorf("invalid config: %s is required", v.name)
		}
	}
	return nil
}

// ClientConfig derives the Skynet client configuration.
func (c *Config) ClientConfig() skynet.Config {
	return skynet.Config{
		Credentials: skynet.Credentials{
			Username:      c.SkynetUsername,
			Password:      c.SkynetPassword,
			SystemID:      c.SkynetSystemID,
			AccountNumber: c.SkynetAccountNumber,
		},
		BaseURL:       c.SkynetBaseURL,
		Timeout:       c.SkynetTimeout,
		TokenPayload:  skynet.TokenPayload(c.SkynetTokenPayload),
		TokenCacheTTL: c.SkynetTokenCacheTTL,
		UseMock:       c.SkynetUseMock,
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("skynet.base_url", c.SkynetBaseURL),
		attribute.String("skynet.token_payload", c.SkynetTokenPayload),
		attribute.Bool("skynet.mock", c.SkynetUseMock),
	}
}
