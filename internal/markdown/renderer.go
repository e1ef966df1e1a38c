package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// nodeRenderer renders the dialect node kinds and overrides fenced code so
// stage-assigned attributes reach the output.
type nodeRenderer struct{}

func (r nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindESM, r.renderNothing)
	reg.Register(KindDeclaration, r.renderNothing)
	reg.Register(KindMath, r.renderMath)
	reg.Register(KindMathBlock, r.renderMathBlock)
	reg.Register(KindComponent, r.renderComponent)
	reg.Register(KindRawBlock, r.renderRawBlock)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
}

func (nodeRenderer) renderNothing(util.BufWriter, []byte, ast.Node, bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}

func (nodeRenderer) renderMath(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	m := n.(*Math)
	_, _ = w.WriteString(`<code class="`)
	_, _ = w.WriteString(m.Classes())
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML([]byte(m.Value)))
	_, _ = w.WriteString("</code>")
	return ast.WalkSkipChildren, nil
}

func (nodeRenderer) renderMathBlock(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<pre>")
	} else {
		_, _ = w.WriteString("</pre>\n")
	}
	return ast.WalkContinue, nil
}

func (nodeRenderer) renderComponent(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	c := n.(*Component)
	if !entering {
		_, _ = w.WriteString("</")
		_, _ = w.WriteString(c.Name)
		_ = w.WriteByte('>')
		if !c.IsInline() {
			_ = w.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	}
	_ = w.WriteByte('<')
	_, _ = w.WriteString(c.Name)
	for _, p := range c.Props {
		_ = w.WriteByte(' ')
		_, _ = w.WriteString(p.Name)
		switch {
		case p.Expr:
			_, _ = w.WriteString("={")
			_, _ = w.WriteString(p.Value)
			_ = w.WriteByte('}')
		case p.Value != "":
			_, _ = w.WriteString(`="`)
			_, _ = w.Write(util.EscapeHTML([]byte(p.Value)))
			_ = w.WriteByte('"')
		}
	}
	_ = w.WriteByte('>')
	if !c.IsInline() && c.HasChildren() {
		_ = w.WriteByte('\n')
	}
	_, _ = w.Write(util.EscapeHTML([]byte(c.Content)))
	return ast.WalkContinue, nil
}

func (nodeRenderer) renderRawBlock(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(n.(*RawBlock).HTML)
	}
	return ast.WalkSkipChildren, nil
}

func (nodeRenderer) renderFencedCode(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	fc := n.(*ast.FencedCodeBlock)
	_, _ = w.WriteString("<pre><code")
	if lang := fc.Language(source); len(lang) > 0 {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML(lang))
		_ = w.WriteByte('"')
	}
	if fc.Attributes() != nil {
		html.RenderAttributes(w, fc, nil)
	}
	_ = w.WriteByte('>')
	lines := fc.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}
