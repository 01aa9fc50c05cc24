package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":3000"`
	PublicDir       string        `envconfig:"PUBLIC_DIR" default:"public"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"messenger.db"`

	// TokenPepper keys the HMAC digest under which session tokens are
	// stored at rest. Must be set outside local development.
	TokenPepper  string        `envconfig:"TOKEN_PEPPER" default:"dev-only-pepper"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	OnlineWindow time.Duration `envconfig:"ONLINE_WINDOW" default:"180s"`

	AuthRateLimitRPM int `envconfig:"AUTH_RATE_LIMIT_RPM" default:"30"`
	APIRateLimitRPM  int `envconfig:"API_RATE_LIMIT_RPM" default:"600"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	OTELMetricsEnabled        bool          `envconfig:"OTEL_METRICS_ENABLED" default:"false"`
	OTELTracesEnabled         bool          `envconfig:"OTEL_TRACES_ENABLED" default:"false"`
	OTELExporterOTLPEndpoint  string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	OTELExporterOTLPInsecure  bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	OTELServiceName           string        `envconfig:"OTEL_SERVICE_NAME" default:"messenger"`
	OTELEnvironment           string        `envconfig:"OTEL_ENVIRONMENT" default:"dev"`
	OTELMetricsExportInterval time.Duration `envconfig:"OTEL_METRICS_EXPORT_INTERVAL" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.TokenPepper == "" {
		return fmt.Errorf("TOKEN_PEPPER is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.OnlineWindow <= 0 {
		return fmt.Errorf("ONLINE_WINDOW must be positive")
	}
	return nil
}
