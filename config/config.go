// Package config loads application settings from defaults, an optional YAML file,
// .env files and CATALOG_ prefixed environment variables, in increasing precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "CATALOG"

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverPQ       = "pq"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"` // silent, error, warn, info
}

type LoggerConfig struct {
	Mode       string `mapstructure:"mode"` // development or production
	Level      string `mapstructure:"level"`
	FileEnable bool   `mapstructure:"file_enable"`
	Filename   string `mapstructure:"filename"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type QueryConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	PriceThreshold float64       `mapstructure:"price_threshold"`
}

type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Server   ServerConfig   `mapstructure:"server"`
	Query    QueryConfig    `mapstructure:"query"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=northwind port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("logger.mode", "development")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file_enable", false)
	v.SetDefault("logger.filename", "catalog.log")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("query.timeout", 30*time.Second)
	v.SetDefault("query.price_threshold", 10.0)
}

// Load builds the configuration. configFile may be empty. Missing env files are skipped.
func Load(configFile string, envFiles ...string) (*AppConfig, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", f)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configFile)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverPQ, DriverSQLite:
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is empty")
	}
	if c.Query.Timeout < 0 {
		return errors.Errorf("query timeout %s is negative", c.Query.Timeout)
	}
	if c.Query.PriceThreshold < 0 {
		return errors.Errorf("price threshold %v is negative", c.Query.PriceThreshold)
	}
	return nil
}
