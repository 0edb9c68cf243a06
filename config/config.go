// Package config loads client settings from defaults, an optional .env
// file, an optional config file and EXAMFLOW_* environment variables, in
// increasing order of precedence. Command-line flags bound by the caller
// override all of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jmcleod/examflow/internal/validate"
)

const (
	EnvPrefix = "EXAMFLOW"

	BackendBbolt  = "bbolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the resolved client configuration.
type Config struct {
	BaseURL           string `mapstructure:"base_url" json:"base_url" validate:"required,http_url"`
	SessionBackend    string `mapstructure:"session_backend" json:"session_backend" validate:"oneof=bbolt redis memory"`
	SessionFile       string `mapstructure:"session_file" json:"session_file" validate:"required_if=SessionBackend bbolt"`
	SessionPassphrase string `mapstructure:"session_passphrase" json:"-"`
	RedisAddr         string `mapstructure:"redis_addr" json:"redis_addr" validate:"required_if=SessionBackend redis"`
	RedisPassword     string `mapstructure:"redis_password" json:"-"`
	RedisPrefix       string `mapstructure:"redis_prefix" json:"redis_prefix"`
	Debug             bool   `mapstructure:"debug" json:"debug"`
}

// DefaultDir is where the config file and the session database live unless
// told otherwise: $XDG_CONFIG_HOME/examflow or its platform equivalent.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".examflow"
	}
	return filepath.Join(base, "examflow")
}

// New prepares a viper instance for dir. The returned instance has not been
// decoded yet so that callers can bind flags first.
func New(dir string) (*viper.Viper, error) {
	if err := loadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("base_url", "http://localhost:8000/api")
	v.SetDefault("session_backend", BackendBbolt)
	v.SetDefault("session_file", filepath.Join(dir, "session.db"))
	v.SetDefault("session_passphrase", "")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_prefix", "examflow:")
	v.SetDefault("debug", false)

	v.SetConfigName("config")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v, nil
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

// Load is New followed by FromViper, for callers without flags.
func Load(dir string) (*Config, error) {
	v, err := New(dir)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// loadDotEnv loads each existing file into the process environment.
// Variables already set are not overridden.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("config: %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: loading %s: %w", p, err)
		}
	}
	return nil
}
