// Package config reads vista's settings from vista.yaml, VISTA_*
// environment variables and bound command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	FileName  = "vista"
	EnvPrefix = "VISTA"
)

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Viewport    ViewportConfig    `mapstructure:"viewport"`
	Layout      LayoutConfig      `mapstructure:"layout"`
	Transitions TransitionsConfig `mapstructure:"transitions"`
	Text        TextConfig        `mapstructure:"text"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Watch       WatchConfig       `mapstructure:"watch"`
	Batch       BatchConfig       `mapstructure:"batch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File adds a rotated JSON sink next to the console output.
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type ViewportConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type LayoutConfig struct {
	MaxPasses int `mapstructure:"max_passes"`
}

type TransitionsConfig struct {
	TickRate float64 `mapstructure:"tick_rate"`
}

type TextConfig struct {
	FontDir string `mapstructure:"font_dir"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type WatchConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SetDefaults registers the value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)

	v.SetDefault("viewport.width", 800)
	v.SetDefault("viewport.height", 600)
	v.SetDefault("layout.max_passes", 16)
	v.SetDefault("transitions.tick_rate", 60)
	v.SetDefault("text.font_dir", "")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("watch.min_interval", "250ms")
	v.SetDefault("batch.concurrency", 4)
}

// New returns a viper instance with defaults, the environment binding and
// the search path for vista.yaml. An explicit file overrides the search.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "vista"))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Read loads the config file if there is one. A missing file found by
// searching is not an error; a missing explicit file is.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: read: %w", err)
	}
	return nil
}

// Load decodes and validates v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the configuration with nothing but defaults.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %gx%g", ErrInvalid, c.Viewport.Width, c.Viewport.Height)
	}
	if c.Layout.MaxPasses < 1 {
		return fmt.Errorf("%w: layout.max_passes must be at least 1", ErrInvalid)
	}
	if c.Transitions.TickRate <= 0 {
		return fmt.Errorf("%w: transitions.tick_rate must be positive", ErrInvalid)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive", ErrInvalid)
	}
	if c.Watch.MinInterval < 0 {
		return fmt.Errorf("%w: watch.min_interval is negative", ErrInvalid)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("%w: batch.concurrency must be at least 1", ErrInvalid)
	}
	return nil
}
