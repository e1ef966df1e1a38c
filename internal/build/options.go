package build

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/compile/stages"
	"git.home.luguber.info/inful/pagecompiler/internal/config"
	"git.home.luguber.info/inful/pagecompiler/internal/gitinfo"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
)

// CompileOptions maps configuration onto compiler options. A content
// directory outside any git repository disables timestamps with a warning.
func CompileOptions(cfg *config.Config, logger *slog.Logger) (compile.Options, error) {
	logger = stageLogger(logger)
	root, err := filepath.Abs(cfg.ContentDir)
	if err != nil {
		return compile.Options{}, fmt.Errorf("resolve content dir: %w", err)
	}

	math := stages.DefaultMathOptions()
	if len(cfg.Math.InlineMath) == 2 {
		math.InlineMath = [2]string{cfg.Math.InlineMath[0], cfg.Math.InlineMath[1]}
	}
	if len(cfg.Math.DisplayMath) == 2 {
		math.DisplayMath = [2]string{cfg.Math.DisplayMath[0], cfg.Math.DisplayMath[1]}
	}
	math.Src = cfg.Math.Src
	math.Config = cfg.Math.Config

	opts := compile.Options{
		Root:        root,
		Math:        cfg.Math.Enabled,
		MathOptions: math,
		ReadingTime: cfg.ReadingTime,
		Logger:      logger,
	}
	if cfg.GitTimestamps {
		ts, err := gitinfo.Open(root)
		if err != nil {
			logger.Warn("Git timestamps disabled", logfields.Dir(root), logfields.Error(err))
		} else {
			opts.Timestamps = ts
		}
	}
	return opts, nil
}

// FallbackFor maps the configured locale fallback onto the registry policy.
func FallbackFor(cfg *config.Config) routes.Fallback {
	if cfg.LocaleFallback == config.LocaleFallbackDefault {
		return routes.FallbackDefault
	}
	return routes.FallbackNone
}
