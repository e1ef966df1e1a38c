package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/tsdoc"
)

// TsdocCmd implements the 'tsdoc' command. It needs no configuration file.
type TsdocCmd struct {
	File      string            `arg:"" help:"TypeScript source file" type:"existingfile"`
	Export    string            `short:"e" help:"Export to document" default:"default"`
	Flattened bool              `help:"Flatten nested object fields into dotted names"`
	Table     bool              `help:"Render HTML tables instead of JSON"`
	TypeLinks map[string]string `name:"type-link" help:"Link type names in tables (Name=URL)"`
}

func (t *TsdocCmd) Run(g *Global, _ *CLI) error {
	ctx := context.Background()
	def, err := tsdoc.GenerateFile(ctx, t.File, t.Export, t.Flattened)
	if err != nil {
		return err
	}
	if t.Table {
		md := compile.New(compile.Options{Logger: slog.Default()})
		out, err := tsdoc.RenderTable(ctx, def, md, tsdoc.RenderOptions{TypeLinkMap: t.TypeLinks})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(g.Out, out)
		return err
	}
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	_, err = fmt.Fprintln(g.Out, string(data))
	return err
}
