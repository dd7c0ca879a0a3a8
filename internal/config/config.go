// Package config loads run settings from defaults, an optional YAML file,
// LCOVSM_* environment variables (a .env file is honoured) and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zjy-dev/lcov-sourcemap/internal/logger"
	"github.com/zjy-dev/lcov-sourcemap/internal/sourcemap"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LCOVSM"

// DefaultConfigName is the config file base name searched for in "." and
// "configs".
const DefaultConfigName = "lcovsm"

// Config holds the settings of a remap run.
type Config struct {
	Lcov        string `mapstructure:"lcov"`
	Sourcemaps  string `mapstructure:"sourcemaps"`
	Inline      bool   `mapstructure:"inline"`
	SourceDir   string `mapstructure:"source_dir"`
	Output      string `mapstructure:"output"`
	Concurrency int    `mapstructure:"concurrency"`
	CacheSize   int    `mapstructure:"cache_size"`
	LogLevel    string `mapstructure:"log_level"`
	LogDir      string `mapstructure:"log_dir"`
	// Summary selects the run summary format: "text", "json" or "" for none.
	Summary string `mapstructure:"summary"`
}

// Template returns the locator template the config selects.
func (c *Config) Template() string {
	if c.Inline {
		return sourcemap.InlineTemplate
	}
	if c.Sourcemaps == "" {
		return sourcemap.DefaultTemplate
	}
	return c.Sourcemaps
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Lcov == "" {
		return errors.New("lcov path is required")
	}
	switch c.Summary {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown summary format %q (want text or json)", c.Summary)
	}
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("lcov", "")
	v.SetDefault("sourcemaps", sourcemap.DefaultTemplate)
	v.SetDefault("inline", false)
	v.SetDefault("source_dir", "")
	v.SetDefault("output", "")
	v.SetDefault("concurrency", 8)
	v.SetDefault("cache_size", sourcemap.DefaultCacheSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "")
	v.SetDefault("summary", "")
}

// Load builds a Config. configFile names an explicit YAML file; when empty,
// lcovsm.yaml is looked up in the working directory and in configs/, and a
// missing file is not an error. Flags in the set are bound by name with "-"
// read as "_", so --source-dir sets source_dir. flags may be nil.
//
// Load does not validate; call Validate once all overrides are in.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logger.Debug("using config file %s", v.ConfigFileUsed())
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				bindErr = fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	return &cfg, nil
}
