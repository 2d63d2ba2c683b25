// Package config loads server configuration from a YAML file, CUBE_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/cube/internal/validator"
)

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type HuntConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	File string `mapstructure:"file"`
}

type TimerConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// See cube.example.yaml for an example config.
type Config struct {
	ListenAddress        string         `mapstructure:"listen_address"         validate:"required"`
	Database             DatabaseConfig `mapstructure:"database"`
	Hunt                 HuntConfig     `mapstructure:"hunt"`
	Timer                TimerConfig    `mapstructure:"timer"`
	Logging              LoggingConfig  `mapstructure:"logging"`
	GracefulShutdownSecs int64          `mapstructure:"graceful_shutdown_secs" validate:"gte=0"`
}

const (
	EnvPrefix            string = "cube"
	ListenAddress        string = "listen_address"
	DatabasePath         string = "database.path"
	HuntName             string = "hunt.name"
	HuntFile             string = "hunt.file"
	TimerInterval        string = "timer.interval"
	LogLevel             string = "logging.level"
	GracefulShutdownSecs string = "graceful_shutdown_secs"
)

// Load reads the configuration. With an empty path, cube.yaml is looked up
// in /etc/cube/ and the working directory and may be absent; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cube")
		v.AddConfigPath("/etc/cube/")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(ListenAddress, ":8182")
	v.SetDefault(DatabasePath, "cube.db")
	v.SetDefault(HuntName, "linear")
	v.SetDefault(HuntFile, "")
	v.SetDefault(TimerInterval, 10*time.Second)
	v.SetDefault(LogLevel, "info")
	v.SetDefault(GracefulShutdownSecs, 10)

	if err := v.ReadInConfig(); err != nil {
		// ignore config file not found to allow pure env config
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.Create().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	slog.Debug("config loaded", "file", v.ConfigFileUsed())
	return &cfg, nil
}

// SlogLevel converts the configured level name.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GracefulShutdown is the time allowed for in-flight requests on shutdown.
func (c *Config) GracefulShutdown() time.Duration {
	return time.Duration(c.GracefulShutdownSecs) * time.Second
}
