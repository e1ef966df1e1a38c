package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "pagecompiler.yaml"

// Load reads, expands, normalizes, defaults and validates a configuration file.
// Relative content and output directories are resolved against the file's directory.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).Build()
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(configPath)
	cfg.ContentDir = resolve(base, cfg.ContentDir)
	cfg.OutputDir = resolve(base, cfg.OutputDir)
	if cfg.Cache.SQLitePath != "" {
		cfg.Cache.SQLitePath = resolve(base, cfg.Cache.SQLitePath)
	}
	return cfg, nil
}

// Parse decodes YAML configuration bytes on top of the built-in defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Math: MathConfig{Enabled: true}, ReadingTime: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	if err := normalize(cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func normalize(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	fb, err := localeFallbackNormalizer.NormalizeWithError(string(cfg.LocaleFallback))
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "locale_fallback").Fatal().Build()
	}
	cfg.LocaleFallback = fb
	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}
	example := Default()
	example.Concurrency = 0
	example.Metrics.Enabled = true
	out, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").Build()
	}
	return nil
}
