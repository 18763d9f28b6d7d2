package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"gamecat/pkg/source"
)

// AppConfig holds the complete configuration for a run
type AppConfig struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	Paths       PathsConfig    `mapstructure:"paths"`
	Sources     []string       `mapstructure:"sources"`
	Pipeline    PipelineConfig `mapstructure:"pipeline"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
}

type PathsConfig struct {
	RawDir      string `mapstructure:"raw_dir"`
	CleanDir    string `mapstructure:"clean_dir"`
	ExternalDir string `mapstructure:"external_dir"`
}

type PipelineConfig struct {
	WorkerCount int `mapstructure:"worker_count"`
}

type PostgresConfig struct {
	URI             string        `mapstructure:"uri"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Load reads configuration from defaults, an optional file and the environment
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "gamecat")
	v.SetDefault("paths.raw_dir", "data_raw")
	v.SetDefault("paths.clean_dir", "data_clean")
	v.SetDefault("paths.external_dir", "data_external")
	v.SetDefault("sources", []string{"playstation", "steam", "xbox"})
	v.SetDefault("pipeline.worker_count", 3)
	v.SetDefault("postgres.uri", "")
	v.SetDefault("postgres.max_conns", 8)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("postgres.connect_attempts", 5)
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "gamecat")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("paths.raw_dir", "GAMECAT_RAW_DIR")
	v.BindEnv("paths.clean_dir", "GAMECAT_CLEAN_DIR")
	v.BindEnv("paths.external_dir", "GAMECAT_EXTERNAL_DIR")
	v.BindEnv("sources", "GAMECAT_SOURCES")
	v.BindEnv("pipeline.worker_count", "PIPELINE_WORKER_COUNT")
	v.BindEnv("postgres.uri", "POSTGRES_URI")
	v.BindEnv("postgres.max_conns", "POSTGRES_MAX_CONNS")
	v.BindEnv("postgres.min_conns", "POSTGRES_MIN_CONNS")
	v.BindEnv("postgres.max_conn_lifetime", "POSTGRES_MAX_CONN_LIFETIME")
	v.BindEnv("postgres.connect_attempts", "POSTGRES_CONNECT_ATTEMPTS")
	v.BindEnv("metrics.pushgateway_url", "METRICS_PUSHGATEWAY_URL")
	v.BindEnv("metrics.job", "METRICS_JOB")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Env values arrive comma separated, possibly with spaces
	config.Sources = splitList(strings.Join(config.Sources, ","))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid for building master tables.
// Loader settings are checked separately by ValidateLoad.
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Paths.RawDir == "" {
		return errors.New("paths.raw_dir is required")
	}
	if c.Paths.CleanDir == "" {
		return errors.New("paths.clean_dir is required")
	}
	if len(c.Sources) == 0 {
		return errors.New("sources must name at least one source")
	}
	if _, err := c.SourceTags(); err != nil {
		return err
	}
	if c.Pipeline.WorkerCount < 1 {
		return errors.New("pipeline.worker_count must be positive")
	}
	return nil
}

// ValidateLoad checks the settings needed by the relational loader
func (c *AppConfig) ValidateLoad() error {
	if c.Postgres.URI == "" {
		return errors.New("postgres.uri is required")
	}
	if c.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be positive")
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return errors.New("postgres.min_conns exceeds postgres.max_conns")
	}
	return nil
}

// SourceTags resolves the configured source keys in order. Repeated keys
// are rejected.
func (c *AppConfig) SourceTags() ([]source.Tag, error) {
	tags := make([]source.Tag, 0, len(c.Sources))
	seen := make(map[source.Tag]bool, len(c.Sources))
	for _, key := range c.Sources {
		tag, err := source.ParseTag(key)
		if err != nil {
			return nil, fmt.Errorf("sources: %w", err)
		}
		if seen[tag] {
			return nil, fmt.Errorf("sources: %q listed twice", key)
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
