package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage: "postgres" or "memory"
	Store            string `toml:"store"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`

	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// progression events
	KafkaEnabled bool     `toml:"kafka_enabled"`
	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`

	// auth
	TokenIssuer string       `toml:"token_issuer"`
	TokenTTL    tomlDuration `toml:"token_ttl"`

	// http
	AllowedOrigins          []string     `toml:"allowed_origins"`
	SyncRateLimitPerMin     int          `toml:"sync_rate_limit_per_min"`
	MaxPushBodyBytes        int64        `toml:"max_push_body_bytes"`
	ExercisesCacheTTL       tomlDuration `toml:"exercises_cache_ttl"`
	ExercisesCacheSizeBytes int          `toml:"exercises_cache_size_bytes"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

// tomlDuration lets durations be written as "30s" or "720h" in the config file.
type tomlDuration struct {
	time.Duration
}

func (d *tomlDuration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
	DockerDev   *Config `toml:"dockerdev"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.DockerDev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with
// defaults applied to unset values.
func Load(env, path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(env, string(raw))
}

func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.setDefaults(env)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults(env string) {
	if c.Environment == "" {
		c.Environment = strings.ToLower(env)
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.Store == "" {
		c.Store = StorePostgres
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDBName == "" {
		c.PostgresDBName = "gymrpg"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "gymrpg.progression"
	}
	if c.TokenIssuer == "" {
		c.TokenIssuer = "gymrpg"
	}
	if c.TokenTTL.Duration == 0 {
		c.TokenTTL.Duration = 30 * 24 * time.Hour
	}
	if c.SyncRateLimitPerMin == 0 {
		c.SyncRateLimitPerMin = 30
	}
	if c.MaxPushBodyBytes == 0 {
		c.MaxPushBodyBytes = 5 << 20
	}
	if c.ExercisesCacheTTL.Duration == 0 {
		c.ExercisesCacheTTL.Duration = 5 * time.Minute
	}
	if c.ExercisesCacheSizeBytes == 0 {
		c.ExercisesCacheSizeBytes = 1 << 20
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store: %s", c.Store)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka enabled but no brokers set")
	}
	return nil
}
