package markdown

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Dialect selects the source grammar.
type Dialect string

const (
	// DialectMarkdown is plain GitHub-flavoured Markdown.
	DialectMarkdown Dialect = "md"
	// DialectMDX adds ESM blocks and passes component markup through.
	DialectMDX Dialect = "mdx"
)

// Options configures a Processor.
type Options struct {
	Dialect Dialect
	Math    bool
}

// Processor parses and renders one dialect. It is safe for concurrent use.
type Processor struct {
	md goldmark.Markdown
}

// New builds a Processor for the given options.
func New(opts Options) *Processor {
	exts := []goldmark.Extender{extension.GFM}
	if opts.Math {
		exts = append(exts, MathExtension)
	}
	rendererOpts := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(nodeRenderer{}, 100)),
	}
	if opts.Dialect == DialectMDX {
		exts = append(exts, ESMExtension)
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	return &Processor{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)}
}

// Parse parses a body (front matter already removed) into a tree.
func (p *Processor) Parse(body []byte) ast.Node {
	return p.md.Parser().Parse(text.NewReader(body))
}

// Render writes the tree's markup.
func (p *Processor) Render(w io.Writer, source []byte, root ast.Node) error {
	return p.md.Renderer().Render(w, source, root)
}

// PlainText concatenates the textual content of n.
func PlainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *Math:
			b.WriteString(v.Value)
		case *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// BlockText returns the raw lines of a block node.
func BlockText(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

// CountWords counts whitespace separated words in prose, skipping code and ESM.
func CountWords(root ast.Node, source []byte) int {
	words := 0
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ESM, *Declaration, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			words += len(strings.Fields(string(v.Segment.Value(source))))
		}
		return ast.WalkContinue, nil
	})
	return words
}
