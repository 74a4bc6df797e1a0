package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Server       Server
	Verification Verification `envPrefix:"VERIFY_"`
	Storage      Storage
	Redis        RedisConfig  `envPrefix:"REDIS_"`
	Kafka        KafkaConfig  `envPrefix:"KAFKA_"`
	Tracing      Tracing      `envPrefix:"OTEL_"`
	Log          Log          `envPrefix:"LOG_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `env:"ALTGUARD_ADDR" envDefault:":8080"`
	WebsiteURL    string `env:"WEBSITE_URL" envDefault:"http://localhost:8080"`
	AdminJWTKey   string `env:"ADMIN_JWT_SIGNING_KEY"`
	AdminIssuer   string `env:"ADMIN_JWT_ISSUER" envDefault:"altguard"`
	IntakeToken   string `env:"MEMBERS_INTAKE_TOKEN"`
	LogDigestKey  string `env:"LOG_DIGEST_KEY"`
	RatePerMinute int    `env:"VERIFY_RATE_PER_MINUTE" envDefault:"10"`
	RateBurst     int    `env:"VERIFY_RATE_BURST" envDefault:"5"`
}

// Verification holds the token lifecycle knobs.
type Verification struct {
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"10m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"15s"`
}

// Storage selects the persistence backend for tokens and identities.
type Storage struct {
	Backend     string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
}

// RedisConfig configures the optional Redis token store. An empty URL disables it.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	// Retention keeps token hashes around after expiry so late submissions
	// still report "expired" instead of "not found".
	Retention time.Duration `env:"TOKEN_RETENTION" envDefault:"1h"`
}

// KafkaConfig configures the platform bridge. Empty brokers select the log sink.
type KafkaConfig struct {
	Brokers           []string `env:"BROKERS" envSeparator:","`
	EnforcementTopic  string   `env:"ENFORCEMENT_TOPIC" envDefault:"altguard.enforcement"`
	MembersTopic      string   `env:"MEMBERS_TOPIC" envDefault:"altguard.members"`
	ConsumerGroup     string   `env:"CONSUMER_GROUP" envDefault:"altguard"`
	Partitions        int32    `env:"PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"REPLICATION_FACTOR" envDefault:"1"`
}

// Enabled reports whether Kafka brokers are configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Tracing configures OTLP export. An empty endpoint keeps the no-op tracer.
type Tracing struct {
	Endpoint    string `env:"EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool   `env:"EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"altguard"`
}

// Log configures the process logger.
type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.Verification.TokenTTL <= 0 {
		errs = append(errs, errors.New("VERIFY_TOKEN_TTL must be positive"))
	}
	if c.Verification.SweepInterval <= 0 {
		errs = append(errs, errors.New("VERIFY_SWEEP_INTERVAL must be positive"))
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	if _, err := url.ParseRequestURI(c.Server.WebsiteURL); err != nil {
		errs = append(errs, fmt.Errorf("WEBSITE_URL: %w", err))
	}
	return errors.Join(errs...)
}
