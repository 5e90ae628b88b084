// Package config loads analyzer settings from defaults, an optional YAML
// file, LOG_ANALYZER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"os"
	"strings"

	analyzererrors "log-analyzer/internal/errors"
	"log-analyzer/internal/logging"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. LOG_ANALYZER_TOP.
const EnvPrefix = "LOG_ANALYZER"

// Configuration keys.
const (
	KeyTop            = "top"
	KeyErrorThreshold = "error_threshold"
	KeyJSONOutput     = "json_output"
	KeyQuiet          = "quiet"
	KeyFollow         = "follow"
	KeyPattern        = "pattern"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyLogDir         = "log.dir"
)

// Config holds the settings for one analysis run.
type Config struct {
	// TopN bounds the IP and endpoint tables.
	TopN int `mapstructure:"top"`
	// ErrorThreshold flags IPs whose ERROR count is strictly greater.
	ErrorThreshold int `mapstructure:"error_threshold"`
	// JSONOutput is the export path; empty disables export.
	JSONOutput string `mapstructure:"json_output"`
	// Quiet suppresses per-line malformed warnings.
	Quiet bool `mapstructure:"quiet"`
	// Follow keeps reading a single file as it grows.
	Follow bool `mapstructure:"follow"`
	// Pattern selects files when the input path is a directory.
	Pattern string `mapstructure:"pattern"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Dir enables rotating JSONL file logs when set.
	Dir string `mapstructure:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TopN:           10,
		ErrorThreshold: 5,
		Pattern:        "*.log",
		Log: LogConfig{
			Level:  "info",
			Format: "plain",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.TopN <= 0 {
		return analyzererrors.NewConfigValidationError(KeyTop, c.TopN, "must be positive")
	}
	if c.ErrorThreshold < 0 {
		return analyzererrors.NewConfigValidationError(KeyErrorThreshold, c.ErrorThreshold, "must be non-negative")
	}
	if c.Pattern == "" {
		return analyzererrors.NewConfigValidationError(KeyPattern, c.Pattern, "must not be empty")
	}
	if !logging.ValidLevel(c.Log.Level) {
		return analyzererrors.NewConfigValidationError(KeyLogLevel, c.Log.Level, "must be one of debug, info, warn, error")
	}
	if c.Log.Format != "plain" && c.Log.Format != "json" {
		return analyzererrors.NewConfigValidationError(KeyLogFormat, c.Log.Format, "must be plain or json")
	}
	return nil
}

// LoggingConfig derives the logging setup for this run.
func (c *Config) LoggingConfig() *logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.ConsoleFormat = c.Log.Format
	if c.Log.Dir != "" {
		cfg.LogDir = c.Log.Dir
		cfg.EnableFile = true
	}
	return cfg
}

// NewViper returns a viper instance carrying the defaults and env binding.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault(KeyTop, d.TopN)
	v.SetDefault(KeyErrorThreshold, d.ErrorThreshold)
	v.SetDefault(KeyJSONOutput, d.JSONOutput)
	v.SetDefault(KeyQuiet, d.Quiet)
	v.SetDefault(KeyFollow, d.Follow)
	v.SetDefault(KeyPattern, d.Pattern)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyLogDir, d.Log.Dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (if any), binds flags, and returns a validated
// Config. An explicit cfgFile must exist; otherwise ./.log-analyzer.yaml and
// $HOME/.log-analyzer.yaml are tried and skipped when absent.
// flagKeys maps config keys to flag names in flags.
func Load(v *viper.Viper, cfgFile string, flags *pflag.FlagSet, flagKeys map[string]string) (*Config, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, analyzererrors.NewConfigMissingError(cfgFile)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".log-analyzer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, analyzererrors.NewConfigInvalidError("failed to read config file", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, analyzererrors.NewConfigInvalidError("failed to bind flag "+name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, analyzererrors.NewConfigInvalidError("failed to decode configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
