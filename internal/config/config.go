package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tournevent/shipmentmentor/pkg/shipmentmentor"
)

// Config holds all configuration for the CLI and relay server.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Shipment Mentor
	AccessToken string        `envconfig:"SHIPMENTMENTOR_ACCESS_TOKEN"`
	Environment string        `envconfig:"SHIPMENTMENTOR_ENV" default:"production"`
	BaseURL     string        `envconfig:"SHIPMENTMENTOR_BASE_URL"`
	Timeout     time.Duration `envconfig:"SHIPMENTMENTOR_TIMEOUT" default:"30s"`
	UseMock     bool          `envconfig:"SHIPMENTMENTOR_USE_MOCK" default:"false"`
	Concurrency int           `envconfig:"SHIPMENTMENTOR_CONCURRENCY" default:"4"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shipmentmentor"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &cfg, nil
}

// Client returns the Shipment Mentor client configuration.
func (c *Config) Client() shipmentmentor.Config {
	return shipmentmentor.Config{
		AccessToken: c.AccessToken,
		Environment: c.Environment,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		UseMock:     c.UseMock,
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
// The access token is never included.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("shipmentmentor.environment", string(shipmentmentor.ResolveEnvironment(c.Environment))),
		attribute.Bool("shipmentmentor.mock", c.UseMock),
	}
}
