package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// mathInlineParser recognises `$...$` and `$$...$$` within a line. Both
// are text math; display math needs the `$$` block form.
type mathInlineParser struct{}

func (mathInlineParser) Trigger() []byte { return []byte{'$'} }

func (mathInlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	fence := 1
	if len(line) > 1 && line[1] == '$' {
		fence = 2
	}
	delim := line[:fence]
	rest := line[fence:]
	if len(rest) == 0 {
		return nil
	}
	// `$ 5` is currency, not math.
	if fence == 1 && isSpace(rest[0]) {
		return nil
	}

	end := -1
	for i := 0; i+fence <= len(rest); i++ {
		if rest[i] == '\\' {
			i++
			continue
		}
		if bytes.HasPrefix(rest[i:], delim) {
			if fence == 1 && (i == 0 || isSpace(rest[i-1])) {
				continue
			}
			// a third `$` would make this a different fence
			if fence == 1 && i+1 < len(rest) && rest[i+1] == '$' {
				continue
			}
			end = i
			break
		}
	}
	if end <= 0 {
		return nil
	}
	value := string(rest[:end])
	if strings.TrimSpace(value) == "" {
		return nil
	}
	block.Advance(fence + end + fence)
	return &Math{Value: value}
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

var mathBlockInfoKey = parser.NewContextKey()

type mathBlockData struct {
	indent int
}

// mathBlockParser parses display math fenced by `$$` lines.
type mathBlockParser struct{}

func (mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (mathBlockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos+1 >= len(line) || line[pos] != '$' || line[pos+1] != '$' {
		return nil, parser.NoChildren
	}
	// `$$a$$` on one line is text math.
	if bytes.IndexByte(line[pos+2:], '$') >= 0 {
		return nil, parser.NoChildren
	}
	pc.Set(mathBlockInfoKey, &mathBlockData{indent: pos})
	return &MathBlock{}, parser.NoChildren
}

func (mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	data := pc.Get(mathBlockInfoKey).(*mathBlockData)
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		i := pos
		for ; i < len(line) && line[i] == '$'; i++ {
		}
		if i-pos >= 2 && util.IsBlank(line[i:]) {
			newline := 1
			if line[len(line)-1] != '\n' {
				newline = 0
			}
			reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
			return parser.Close
		}
	}
	pos, padding := util.IndentPositionPadding(line, reader.LineOffset(), segment.Padding, data.indent)
	if pos < 0 {
		pos = max(0, util.FirstNonSpacePosition(line)) - segment.Padding
		padding = 0
	}
	seg := text.NewSegmentPadding(segment.Start+pos, segment.Stop, padding)
	seg.ForceNewline = true
	node.Lines().Append(seg)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-pos-1, padding)
	return parser.Continue | parser.NoChildren
}

func (mathBlockParser) Close(_ ast.Node, _ text.Reader, pc parser.Context) {
	pc.Set(mathBlockInfoKey, nil)
}

func (mathBlockParser) CanInterruptParagraph() bool { return true }
func (mathBlockParser) CanAcceptIndentedLine() bool { return false }

// mathFenceTransformer turns ```math fenced blocks into display math and
// fills `$$` blocks with their Math node.
type mathFenceTransformer struct{}

func (mathFenceTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var fences []*ast.FencedCodeBlock
	var blocks []*MathBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.FencedCodeBlock:
			if string(v.Language(source)) == "math" {
				fences = append(fences, v)
			}
		case *MathBlock:
			blocks = append(blocks, v)
		}
		return ast.WalkContinue, nil
	})
	for _, mb := range blocks {
		value := strings.TrimRight(string(BlockText(mb, source)), "\r\n")
		mb.AppendChild(mb, &Math{Display: true, Value: value})
	}
	for _, fc := range fences {
		mb := &MathBlock{}
		value := strings.TrimRight(string(BlockText(fc, source)), "\n")
		mb.AppendChild(mb, &Math{Display: true, Value: value})
		fc.Parent().ReplaceChild(fc.Parent(), fc, mb)
	}
}

type mathExtension struct{}

func (mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(mathBlockParser{}, 690)),
		parser.WithInlineParsers(util.Prioritized(mathInlineParser{}, 150)),
		parser.WithASTTransformers(util.Prioritized(mathFenceTransformer{}, 100)),
	)
}

// MathExtension enables `$` text math, `$$` display blocks and ```math fences.
var MathExtension goldmark.Extender = mathExtension{}
