// Package compile turns one source document into a compiled module.
//
// Every document passes through the same parse and metadata resolution
// regardless of mode, so metadata-only and full compiles of identical bytes
// yield identical metadata. Full compiles then run the enrichment stages in
// a fixed order and render the body.
package compile

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/pagecompiler/internal/compile/stages"
	"git.home.luguber.info/inful/pagecompiler/internal/frontmatter"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/markdown"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

// Heading is one table of contents entry.
type Heading = stages.Heading

// Options configures a Compiler.
type Options struct {
	// Root makes Metadata.FilePath relative.
	Root        string
	Math        bool
	MathOptions stages.MathOptions
	ReadingTime bool
	Timestamps  TimestampSource
	Highlighter stages.Highlighter
	// Stages run after the built-in enrichment stages, in order.
	Stages []stages.Stage
	// RemoteContent compiles without injecting component imports.
	RemoteContent bool
	Logger        *slog.Logger
	// Trace observes every state transition of full compiles.
	Trace func(path string, s State)
}

// Compiler compiles documents. It is safe for concurrent use.
type Compiler struct {
	opts Options
	md   *markdown.Processor
	mdx  *markdown.Processor
}

// New creates a Compiler.
func New(opts Options) *Compiler {
	return &Compiler{
		opts: opts,
		md:   markdown.New(markdown.Options{Dialect: markdown.DialectMarkdown, Math: opts.Math}),
		mdx:  markdown.New(markdown.Options{Dialect: markdown.DialectMDX, Math: opts.Math}),
	}
}

func (c *Compiler) logger() *slog.Logger {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return slog.Default()
}

type parsedDoc struct {
	src         scan.SourceFile
	proc        *markdown.Processor
	frontMatter map[string]any
	exported    map[string]any
	root        ast.Node
	body        []byte
}

// Compile runs the full pipeline.
func (c *Compiler) Compile(ctx context.Context, src scan.SourceFile) (*Module, error) {
	tr := &tracker{path: src.Path, trace: c.opts.Trace}

	doc, err := c.parse(src)
	if err != nil {
		return nil, err
	}
	if err := tr.advance(StateParsed); err != nil {
		return nil, err
	}

	meta, err := c.resolveMetadata(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := tr.advance(StateMetadataAssigned); err != nil {
		return nil, err
	}

	tree := stages.NewTree(doc.root, doc.body)
	runOpts := stages.RunOptions{
		Context:       ctx,
		FilePath:      src.Path,
		RemoteContent: c.opts.RemoteContent,
		Logger:        c.logger().With(logfields.File(src.Path)),
	}
	steps := []struct {
		to   State
		list []stages.Stage
	}{
		{StateTocCollected, []stages.Stage{stages.TOC{}}},
		{StateMathRewritten, c.mathStages()},
		{StateEnriched, c.enrichStages()},
	}
	for _, step := range steps {
		if err := stages.Run(tree, runOpts, step.list...); err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			return nil, &CompileError{Path: src.Path, Message: "enrichment failed", Err: err}
		}
		if err := tr.advance(step.to); err != nil {
			return nil, err
		}
	}

	var body bytes.Buffer
	if err := doc.proc.Render(&body, doc.body, tree.Root); err != nil {
		return nil, &CompileError{Path: src.Path, Message: "render failed", Err: err}
	}
	if err := tr.advance(StateCodegenned); err != nil {
		return nil, err
	}

	return &Module{
		Path:         src.Path,
		Locale:       src.Locale,
		Mode:         ModeFull,
		Metadata:     meta,
		TOC:          tree.TOC,
		Declarations: tree.Declarations(),
		Components:   markdown.CollectComponents(tree.Root, doc.body),
		Body:         body.String(),
	}, nil
}

// CompileMetadata parses the document and resolves metadata only. No
// enrichment stage runs.
func (c *Compiler) CompileMetadata(ctx context.Context, src scan.SourceFile) (*Module, error) {
	doc, err := c.parse(src)
	if err != nil {
		return nil, err
	}
	meta, err := c.resolveMetadata(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &Module{Path: src.Path, Locale: src.Locale, Mode: ModeMetadata, Metadata: meta}, nil
}

// CompileMode dispatches on mode.
func (c *Compiler) CompileMode(ctx context.Context, src scan.SourceFile, mode Mode) (*Module, error) {
	if mode == ModeMetadata {
		return c.CompileMetadata(ctx, src)
	}
	return c.Compile(ctx, src)
}

// FrontMatter resolves a document's front matter mapping, title included.
func (c *Compiler) FrontMatter(ctx context.Context, src scan.SourceFile) (map[string]any, error) {
	m, err := c.CompileMetadata(ctx, src)
	if err != nil {
		return nil, err
	}
	return m.Metadata.FrontMatter(), nil
}

// RenderMarkdown compiles a markdown snippet without injecting imports and
// returns the rendered body.
func (c *Compiler) RenderMarkdown(ctx context.Context, text string) (string, error) {
	opts := c.opts
	opts.RemoteContent = true
	opts.Timestamps = nil
	opts.ReadingTime = false
	opts.Trace = nil
	remote := &Compiler{opts: opts, md: c.md, mdx: c.mdx}
	m, err := remote.Compile(ctx, scan.SourceFile{
		Path:    "snippet.md",
		Format:  scan.FormatMarkdown,
		Content: []byte(text),
	})
	if err != nil {
		return "", err
	}
	return m.Body, nil
}

func (c *Compiler) mathStages() []stages.Stage {
	if !c.opts.Math {
		return nil
	}
	return []stages.Stage{&stages.Math{Options: c.opts.MathOptions}}
}

func (c *Compiler) enrichStages() []stages.Stage {
	list := []stages.Stage{&stages.Highlight{Highlighter: c.opts.Highlighter}}
	return append(list, c.opts.Stages...)
}

func (c *Compiler) parse(src scan.SourceFile) (*parsedDoc, error) {
	fm, body, _, _, err := frontmatter.Split(src.Content)
	if err != nil {
		if errors.Is(err, frontmatter.ErrMissingClosingDelimiter) {
			return nil, &CompileError{Path: src.Path, Line: 1, Column: 1, Message: "unterminated front matter", Err: err}
		}
		return nil, &CompileError{Path: src.Path, Message: "front matter", Err: err}
	}
	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		ce := &CompileError{Path: src.Path, Message: "malformed front matter", Err: err}
		var pe *frontmatter.ParseError
		if errors.As(err, &pe) && pe.Line > 0 {
			ce.Line = pe.Line + 1
		}
		return nil, ce
	}

	bodyLine := frontmatter.BodyLine(src.Content, body)
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))

	proc := c.md
	if src.Format == scan.FormatMDX || filepath.Ext(src.Path) == ".mdx" {
		proc = c.mdx
	}
	root := proc.Parse(body)

	doc := &parsedDoc{src: src, proc: proc, frontMatter: fields, root: root, body: body}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		esm, ok := n.(*markdown.ESM)
		if !ok {
			continue
		}
		exported, offset, err := exportedMetadata(esm.Value(body))
		if err != nil {
			start := 0
			if esm.Lines().Len() > 0 {
				start = esm.Lines().At(0).Start
			}
			line, col := lineCol(body, start+offset)
			return nil, &CompileError{
				Path:    src.Path,
				Line:    line + bodyLine - 1,
				Column:  col,
				Message: "unparsable metadata export",
				Err:     err,
			}
		}
		if exported == nil {
			continue
		}
		if doc.exported == nil {
			doc.exported = map[string]any{}
		}
		for k, v := range exported {
			doc.exported[k] = v
		}
	}
	return doc, nil
}
