// Package config loads server settings from defaults, an optional YAML file,
// TICKETSPLIT_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TICKETSPLIT"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	GinMode      string        `mapstructure:"gin_mode"`
}

type StorageConfig struct {
	Driver string       `mapstructure:"driver"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"port":       "server.port",
	"gin-mode":   "server.gin_mode",
	"driver":     "storage.driver",
	"db-path":    "storage.sqlite.path",
	"mongo-uri":  "storage.mongo.uri",
	"mongo-db":   "storage.mongo.database",
	"log-level":  "log.level",
	"log-format": "log.format",
	"metrics":    "metrics.enabled",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite.path", "./data/ticketsplit.db")
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "ticketsplit")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.enabled", true)
}

// RegisterFlags adds the server flags to fs. Flags left unset do not
// override the environment or the config file.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to a YAML config file")
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("gin-mode", "release", "gin mode (debug, release, test)")
	fs.String("driver", DriverSQLite, "storage driver (sqlite, mongo)")
	fs.String("db-path", "./data/ticketsplit.db", "SQLite database file")
	fs.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	fs.String("mongo-db", "ticketsplit", "MongoDB database name")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json)")
	fs.Bool("metrics", true, "serve Prometheus metrics on /metrics")
}

// Load builds the configuration. fs may be nil, in which case only defaults,
// the environment and no config file are used.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}

		if path, _ := fs.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the settings can be used to start a server.
func (c *Config) Validate() error {
	errs := []error{
		validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.Server.GinMode, validation.In("debug", "release", "test")),
		),
		validation.ValidateStruct(&c.Storage,
			validation.Field(&c.Storage.Driver, validation.Required, validation.In(DriverSQLite, DriverMongo)),
		),
		validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&c.Log.Format, validation.In("text", "json")),
		),
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		errs = append(errs, validation.ValidateStruct(&c.Storage.SQLite,
			validation.Field(&c.Storage.SQLite.Path, validation.Required),
		))
	case DriverMongo:
		errs = append(errs, validation.ValidateStruct(&c.Storage.Mongo,
			validation.Field(&c.Storage.Mongo.URI, validation.Required),
			validation.Field(&c.Storage.Mongo.Database, validation.Required),
		))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
