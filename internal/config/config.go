package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable, e.g. SALARYDASH_SERVER_PORT.
const EnvPrefix = "SALARYDASH"

// DefaultSource is the public salary dataset the dashboard was built around.
const DefaultSource = "https://raw.githubusercontent.com/vqrca/dashboard_salarios_dados/refs/heads/main/dados-imersao-final.csv"

// Config represents the complete application configuration
type Config struct {
	Env     string        `yaml:"env" envconfig:"ENV" default:"development" validate:"oneof=development production test"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"20" validate:"gte=0"`
}

// DataConfig controls where the dataset comes from and how views are sized.
type DataConfig struct {
	Source          string        `yaml:"source" envconfig:"SOURCE" validate:"required"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"30s"`
	MaxBytes        int64         `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"268435456" validate:"gt=0"`
	TopN            int           `yaml:"top_n" envconfig:"TOP_N" default:"10" validate:"min=1,max=100"`
	HistogramBins   int           `yaml:"histogram_bins" envconfig:"HISTOGRAM_BINS" default:"20" validate:"min=1,max=200"`
	Watch           bool          `yaml:"watch" envconfig:"WATCH" default:"false"`
	RefreshSchedule string        `yaml:"refresh_schedule" envconfig:"REFRESH_SCHEDULE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"auto" validate:"oneof=auto json text"`
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from, in increasing precedence: struct defaults,
// environment variables (a .env file is honoured outside production), and the
// YAML file named by SALARYDASH_CONFIG_FILE.
func Load() (*Config, error) {
	if os.Getenv(EnvPrefix+"_ENV") != "production" {
		_ = godotenv.Load(".env")
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config from env")
	}
	if cfg.Data.Source == "" {
		cfg.Data.Source = DefaultSource
	}

	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML document onto cfg; keys absent from the file
// keep their current value.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
