package config

import (
	"time"
)

// Config is the page compiler configuration.
type Config struct {
	ContentDir     string         `yaml:"content_dir" validate:"required"`
	OutputDir      string         `yaml:"output_dir" validate:"required"`
	Locales        []string       `yaml:"locales,omitempty" validate:"unique,dive,required"`
	DefaultLocale  string         `yaml:"default_locale,omitempty"`
	LocaleFallback LocaleFallback `yaml:"locale_fallback,omitempty"`
	IndexName      string         `yaml:"index_name" validate:"required"`
	MetaFile       string         `yaml:"meta_file" validate:"required"`
	Math           MathConfig     `yaml:"math"`
	ReadingTime    bool           `yaml:"reading_time"`
	GitTimestamps  bool           `yaml:"git_timestamps"`
	Concurrency    int            `yaml:"concurrency" validate:"gte=0"`
	Cache          CacheConfig    `yaml:"cache"`
	Server         ServerConfig   `yaml:"server"`
	Logging        LoggingConfig  `yaml:"logging"`
	Metrics        MetricsConfig  `yaml:"metrics"`
}

// MathConfig configures the math rewrite stage and its provider component.
type MathConfig struct {
	Enabled     bool           `yaml:"enabled"`
	InlineMath  []string       `yaml:"inline_math,omitempty" validate:"omitempty,len=2"`
	DisplayMath []string       `yaml:"display_math,omitempty" validate:"omitempty,len=2"`
	Src         string         `yaml:"src,omitempty" validate:"omitempty,url"`
	Config      map[string]any `yaml:"config,omitempty"`
}

// CacheConfig configures the compile cache.
type CacheConfig struct {
	SQLitePath    string        `yaml:"sqlite_path,omitempty"`
	PruneInterval time.Duration `yaml:"prune_interval,omitempty"`
	MaxAge        time.Duration `yaml:"max_age,omitempty"`
}

// ServerConfig configures the development HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig toggles the Prometheus recorder and /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Math: MathConfig{Enabled: true}, ReadingTime: true}
	_ = applyDefaults(cfg)
	return cfg
}

// Localized reports whether any locales are configured.
func (c *Config) Localized() bool { return len(c.Locales) > 0 }

// EffectiveLocales returns the configured locales, or the single unnamed locale.
func (c *Config) EffectiveLocales() []string {
	if !c.Localized() {
		return []string{""}
	}
	return append([]string(nil), c.Locales...)
}
