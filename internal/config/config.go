package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the carrier-selection service configuration
type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Databases DatabaseSet     `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Temporal  TemporalConfig  `yaml:"temporal"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Selection SelectionConfig `yaml:"selection"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseSet holds one database configuration per environment
type DatabaseSet struct {
	Development DatabaseConfig `yaml:"development"`
	Production  DatabaseConfig `yaml:"production"`
}

// DatabaseConfig describes how to reach the legacy store
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres or sqlite
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the driver-specific data source name
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Name
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode)
}

// KafkaConfig configures the outbox relay
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
}

// TemporalConfig configures the batch workflow client
type TemporalConfig struct {
	Enabled   bool   `yaml:"enabled"`
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`
}

// OutboxConfig configures the outbox publisher loop
type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	Retention    time.Duration `yaml:"retention"`
}

// SelectionConfig holds the carrier-selection tunables
type SelectionConfig struct {
	ShipOrigin        string        `yaml:"ship_origin"`
	MaxLeadTimeSpan   int           `yaml:"max_lead_time_span"`
	ReferenceCacheTTL time.Duration `yaml:"reference_cache_ttl"`
	UnassignedCarrier string        `yaml:"unassigned_carrier"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Databases: DatabaseSet{
			Development: DatabaseConfig{
				Driver:       "sqlite",
				Name:         "file:carrier_selection.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
				MaxOpenConns: 1,
				MaxIdleConns: 1,
			},
			Production: DatabaseConfig{
				Driver:          "postgres",
				Host:            "localhost",
				Port:            5432,
				Name:            "wms",
				User:            "wms",
				SSLMode:         "disable",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
		},
		Tracing: TracingConfig{
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    100,
			Retention:    7 * 24 * time.Hour,
		},
		Selection: SelectionConfig{
			ShipOrigin:        "01",
			MaxLeadTimeSpan:   60,
			ReferenceCacheTTL: 5 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by path
// (or CONFIG_FILE when path is empty) and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Env = getEnv("ENV", c.Env)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)

	db := c.database()
	db.Driver = getEnv("DB_DRIVER", db.Driver)
	db.Host = getEnv("DB_HOST", db.Host)
	db.Name = getEnv("DB_NAME", db.Name)
	db.User = getEnv("DB_USER", db.User)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		db.Port = port
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	c.Kafka.Enabled = getBool("KAFKA_ENABLED", c.Kafka.Enabled)

	c.Temporal.Enabled = getBool("TEMPORAL_ENABLED", c.Temporal.Enabled)
	c.Temporal.HostPort = getEnv("TEMPORAL_HOST", c.Temporal.HostPort)
	c.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)

	c.Tracing.Enabled = getBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)

	c.Selection.UnassignedCarrier = getEnv("UNASSIGNED_CARRIER", c.Selection.UnassignedCarrier)
	c.Selection.ShipOrigin = getEnv("SHIP_ORIGIN", c.Selection.ShipOrigin)
	if v := os.Getenv("MAX_LEAD_TIME_SPAN"); v != "" {
		span, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_LEAD_TIME_SPAN %q: %w", v, err)
		}
		c.Selection.MaxLeadTimeSpan = span
	}
	if v := os.Getenv("REFERENCE_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REFERENCE_CACHE_TTL %q: %w", v, err)
		}
		c.Selection.ReferenceCacheTTL = ttl
	}
	return nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("unknown ENV %q: must be %s or %s", c.Env, EnvDevelopment, EnvProduction)
	}
	db := c.Database()
	switch db.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", db.Driver)
	}
	if db.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Selection.MaxLeadTimeSpan <= 0 {
		return fmt.Errorf("selection.max_lead_time_span must be positive")
	}
	return nil
}

// Database returns the database configuration selected by Env
func (c *Config) Database() DatabaseConfig {
	return *c.database()
}

func (c *Config) database() *DatabaseConfig {
	if c.Env == EnvProduction {
		return &c.Databases.Production
	}
	return &c.Databases.Development
}

// IsProduction reports whether the production database is selected
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
