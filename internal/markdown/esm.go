package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var esmPrefixes = [][]byte{[]byte("import "), []byte("export "), []byte("import{"), []byte("export{")}

// esmParser collects top-level import/export lines up to the next blank line.
type esmParser struct{}

func (esmParser) Trigger() []byte { return []byte{'i', 'e'} }

func (esmParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	if parent.Kind() != ast.KindDocument || pc.BlockIndent() != 0 {
		return nil, parser.NoChildren
	}
	line, segment := reader.PeekLine()
	if !isESMLine(line) {
		return nil, parser.NoChildren
	}
	node := &ESM{}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (esmParser) Continue(node ast.Node, reader text.Reader, _ parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if util.IsBlank(line) {
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (esmParser) Close(ast.Node, text.Reader, parser.Context) {}
func (esmParser) CanInterruptParagraph() bool                 { return false }
func (esmParser) CanAcceptIndentedLine() bool                 { return false }

func isESMLine(line []byte) bool {
	for _, p := range esmPrefixes {
		if bytes.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

type esmExtension struct{}

func (esmExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(util.Prioritized(esmParser{}, 90)))
}

// ESMExtension enables module-scope import/export blocks.
var ESMExtension goldmark.Extender = esmExtension{}
