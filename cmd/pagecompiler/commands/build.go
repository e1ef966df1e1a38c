package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/pagecompiler/internal/build"
	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides output_dir)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.OutputDir = b.Output
	}
	c, err := newCompiler(cfg)
	if err != nil {
		return err
	}
	builder := &build.Builder{Config: cfg, Compiler: c, Logger: slog.Default()}
	res, err := builder.Build(context.Background())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Built %d modules into %s (%s)\n",
		res.Report.Modules, cfg.OutputDir, res.Report.Duration().Round(1e6))
	return nil
}

func newCompiler(cfg *config.Config) (*compile.Compiler, error) {
	opts, err := build.CompileOptions(cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return compile.New(opts), nil
}
