package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service and the CLI.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Pakettikauppa
	TestMode       bool          `envconfig:"PAKETTIKAUPPA_TEST_MODE" default:"true"`
	APIKey         string        `envconfig:"PAKETTIKAUPPA_API_KEY"`
	Secret         string        `envconfig:"PAKETTIKAUPPA_SECRET"`
	ResellerAPIKey string        `envconfig:"PAKETTIKAUPPA_RESELLER_API_KEY"`
	ResellerSecret string        `envconfig:"PAKETTIKAUPPA_RESELLER_SECRET"`
	BaseURL        string        `envconfig:"PAKETTIKAUPPA_BASE_URL"`
	Timeout        time.Duration `envconfig:"PAKETTIKAUPPA_TIMEOUT" default:"30s"`
	HTTPDebug      bool          `envconfig:"PAKETTIKAUPPA_HTTP_DEBUG" default:"false"`
	UseMock        bool          `envconfig:"PAKETTIKAUPPA_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"pakettikauppa"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("pakettikauppa.test_mode", c.TestMode),
		attribute.Bool("pakettikauppa.use_mock", c.UseMock),
	}
}
