package commands

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"git.home.luguber.info/inful/pagecompiler/internal/build"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	Locale string `short:"l" help:"Locale to print (default: all)"`
}

func (r *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	c, err := newCompiler(cfg)
	if err != nil {
		return err
	}
	builder := &build.Builder{Config: cfg, Compiler: c, Logger: slog.Default()}
	res, err := builder.Index(context.Background())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	for _, locale := range res.Snapshot.Locales {
		if r.Locale != "" && r.Locale != locale {
			continue
		}
		t := res.Snapshot.Tables[locale]
		for _, route := range t.Routes() {
			path, _ := t.Lookup(route)
			if locale == "" {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", route, path)
				continue
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", locale, route, path)
		}
	}
	if r.Locale != "" && res.Snapshot.Tables[r.Locale] == nil {
		return &routes.NotFoundError{Route: "/", Locale: r.Locale}
	}
	return tw.Flush()
}
