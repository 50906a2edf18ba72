// Package config loads streamstat configuration from file, environment and
// defaults.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jingkaihe/streamstat/internal/errx"
	"github.com/jingkaihe/streamstat/pkg/logpolicy"
)

// EnvPrefix prefixes every environment override, e.g.
// STREAMSTAT_LOGGING_LEVEL=debug.
const EnvPrefix = "STREAMSTAT"

// Config is the complete streamstat configuration.
//
// Sources in order of precedence:
//  1. Environment variables (STREAMSTAT_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	FileIO  FileIOConfig  `mapstructure:"fileio"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Events  EventsConfig  `mapstructure:"events"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	History HistoryConfig `mapstructure:"history"`
}

// LoggingConfig controls the operational logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required"`
}

// FileIOConfig is the file instrument and the shared logging policy.
type FileIOConfig struct {
	Enabled          bool           `mapstructure:"enabled"`
	Threshold        int            `mapstructure:"threshold" validate:"gte=0"`
	StackSize        int            `mapstructure:"stack_size" validate:"gte=1"`
	Penalty          int            `mapstructure:"penalty" validate:"gte=0"`
	PrimaryCategory  string         `mapstructure:"primary_category" validate:"required"`
	FallbackCategory string         `mapstructure:"fallback_category" validate:"required"`
	Weights          map[string]int `mapstructure:"weights" validate:"dive,gte=0"`
	Roots            []RootConfig   `mapstructure:"roots" validate:"dive"`
}

// RootConfig names the category for files under Path.
type RootConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Path string `mapstructure:"path" validate:"required"`
}

// HTTPConfig is the outbound HTTP instrument and native wrapper.
type HTTPConfig struct {
	Schemes   []string      `mapstructure:"schemes" validate:"min=1,dive,oneof=http https"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent"`
	// Fallback is "host" to categorize by URL host, or a fixed label.
	Fallback   string           `mapstructure:"fallback" validate:"required"`
	Categories []CategoryConfig `mapstructure:"categories" validate:"dive"`
}

// CategoryConfig names the category for URLs under Prefix.
type CategoryConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Prefix string `mapstructure:"prefix" validate:"required,url"`
}

// EventsConfig selects the event sinks.
type EventsConfig struct {
	Text      bool   `mapstructure:"text"`
	JSONLPath string `mapstructure:"jsonl_path"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `mapstructure:"listen" validate:"omitempty,hostname_port"`
}

// HistoryConfig enables the SQLite snapshot history when DBPath is set.
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Load reads configuration from path, the environment and defaults, then
// validates it. An empty path searches the default location; a missing
// file is not an error.
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil, nil)
}

// FlagBindings maps config keys to command-line flag names.
type FlagBindings map[string]string

// LoadWithFlags is Load with flag overrides. A bound flag wins over the
// environment and the file, but only when it was set on the command line.
func LoadWithFlags(path string, flags *pflag.FlagSet, bindings FlagBindings) (*Config, error) {
	v := viper.New()
	setupViper(v, path)

	if flags != nil {
		for key, name := range bindings {
			f := flags.Lookup(name)
			if f == nil {
				return nil, errx.With(ErrBindFlag, ": %s: no flag %q", key, name)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errx.With(ErrBindFlag, ": %s: %w", key, err)
			}
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errx.Wrap(ErrUnmarshal, err)
	}
	if raw := strings.TrimSpace(os.Getenv(logpolicy.EnvThreshold)); raw != "" {
		cfg.FileIO.Enabled = true
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bootstrap variables read by logpolicy.FromEnv also feed the
	// loaded configuration.
	_ = v.BindEnv("fileio.threshold", EnvPrefix+"_FILEIO_THRESHOLD", logpolicy.EnvThreshold)
	_ = v.BindEnv("fileio.stack_size", EnvPrefix+"_FILEIO_STACK_SIZE", logpolicy.EnvStackSize)

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		return
	}
	v.AddConfigPath(ConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errx.Wrap(ErrReadConfig, err)
}

// ConfigDir is $XDG_CONFIG_HOME/streamstat, falling back to
// ~/.config/streamstat, or "." when no home directory is known.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "streamstat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "streamstat")
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
