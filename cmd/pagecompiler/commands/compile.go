package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

// CompileCmd implements the 'compile' command.
type CompileCmd struct {
	File     string `arg:"" help:"Document to compile; append ?metadata for metadata only"`
	Locale   string `short:"l" help:"Locale of the document"`
	Metadata bool   `help:"Compile metadata only"`
}

func (c *CompileCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	compiler, err := newCompiler(cfg)
	if err != nil {
		return err
	}
	req := compile.ParseRequest(c.File)
	if c.Metadata {
		req.Mode = compile.ModeMetadata
	}
	src, err := scan.ReadSource(req.Path, c.Locale)
	if err != nil {
		return err
	}
	m, err := compiler.CompileMode(context.Background(), src, req.Mode)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal module: %w", err)
	}
	_, err = fmt.Fprintln(g.Out, string(data))
	return err
}
