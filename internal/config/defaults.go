package config

import (
	"runtime"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type contentDefaults struct{}

func (contentDefaults) Domain() string { return "content" }

func (contentDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.ContentDir == "" {
		cfg.ContentDir = "content"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = ".pagecompiler"
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "index"
	}
	if cfg.MetaFile == "" {
		cfg.MetaFile = "_meta"
	}
	if cfg.DefaultLocale == "" && len(cfg.Locales) > 0 {
		cfg.DefaultLocale = cfg.Locales[0]
	}
	if cfg.LocaleFallback == "" {
		cfg.LocaleFallback = LocaleFallbackNone
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	return nil
}

type mathDefaults struct{}

func (mathDefaults) Domain() string { return "math" }

func (mathDefaults) ApplyDefaults(cfg *Config) error {
	if len(cfg.Math.InlineMath) == 0 {
		cfg.Math.InlineMath = []string{`\(`, `\)`}
	}
	if len(cfg.Math.DisplayMath) == 0 {
		cfg.Math.DisplayMath = []string{`\[`, `\]`}
	}
	return nil
}

type runtimeDefaults struct{}

func (runtimeDefaults) Domain() string { return "runtime" }

func (runtimeDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Cache.PruneInterval == 0 {
		cfg.Cache.PruneInterval = 10 * time.Minute
	}
	if cfg.Cache.MaxAge == 0 {
		cfg.Cache.MaxAge = 24 * time.Hour
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:4000"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{contentDefaults{}, mathDefaults{}, runtimeDefaults{}}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
