// Package commands implements the pagecompiler command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagecompiler/internal/config"
)

// Global carries state shared by every command.
type Global struct {
	// Out receives command output.
	Out io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"${config_path}"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Compile the content tree into artifacts"`
	Serve   ServeCmd   `cmd:"" help:"Serve pages over HTTP, recompiling on change"`
	Routes  RoutesCmd  `cmd:"" help:"Print the route table"`
	Compile CompileCmd `cmd:"" help:"Compile a single document and print the module"`
	Tsdoc   TsdocCmd   `cmd:"" help:"Extract type documentation from a TypeScript file"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// Vars returns the kong variables the CLI definition refers to.
func Vars(version string) kong.Vars {
	return kong.Vars{"version": version, "config_path": config.DefaultPath}
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig loads the configuration and switches logging to its settings.
// -v always wins over the configured level.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, cfg.Logging.Format))
	return cfg, nil
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
