package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagecompiler/cmd/pagecompiler/commands"
	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
	"git.home.luguber.info/inful/pagecompiler/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Out: os.Stdout}
	ctx := kong.Parse(&cli,
		kong.Name("pagecompiler"),
		kong.Description("Build page maps and compiled page modules from a content tree."),
		kong.UsageOnError(),
		commands.Vars(version.Info()),
		kong.Bind(global),
	)
	if err := ctx.Run(global, &cli); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Report(os.Stderr, err))
	}
}
