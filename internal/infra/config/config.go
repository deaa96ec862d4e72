package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMongo    = "mongodb"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr      string          `mapstructure:"addr"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// Name is the MongoDB database; ignored by SQL drivers.
	Name string `mapstructure:"name"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxBackoff   time.Duration `mapstructure:"max_backoff"`
	BatchSize    int           `mapstructure:"batch_size"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.rate_limit.rps", 20)
	v.SetDefault("http.rate_limit.burst", 40)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "billing.db")
	v.SetDefault("database.name", "billing")
	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.max_backoff", 30*time.Second)
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("log.env", "development")
	v.SetDefault("log.level", "info")
}

// Load reads path when given, otherwise billing.yaml from . or ./config
// if present. BILLING_* environment variables override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("billing")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Outbox.BatchSize <= 0 {
		return errors.New("outbox batch size must be positive")
	}
	if c.Outbox.PollInterval <= 0 {
		return errors.New("outbox poll interval must be positive")
	}
	return nil
}
