package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// KindESM is a module-scope import/export block in rich documents.
var KindESM = ast.NewNodeKind("ESM")

// ESM holds one contiguous run of import/export lines.
type ESM struct {
	ast.BaseBlock
}

func (n *ESM) Kind() ast.NodeKind { return KindESM }
func (n *ESM) IsRaw() bool        { return true }

func (n *ESM) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Value returns the verbatim block text.
func (n *ESM) Value(source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimRight(b.String(), "\r\n")
}

// KindDeclaration is an import/export created by a stage rather than parsed.
var KindDeclaration = ast.NewNodeKind("Declaration")

// Declaration is an injected module-scope import/export.
type Declaration struct {
	ast.BaseBlock
	Value string
}

// NewDeclaration returns an injected declaration node.
func NewDeclaration(value string) *Declaration {
	return &Declaration{Value: value}
}

func (n *Declaration) Kind() ast.NodeKind { return KindDeclaration }
func (n *Declaration) IsRaw() bool        { return true }

func (n *Declaration) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": n.Value}, nil)
}

// KindMath is the math node kind, inline or display.
var KindMath = ast.NewNodeKind("Math")

// Math is a TeX fragment. Text math stays inline in the tree; display
// math always sits in a MathBlock.
type Math struct {
	ast.BaseInline
	Display bool
	Value   string
}

func (n *Math) Kind() ast.NodeKind { return KindMath }

func (n *Math) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": n.Value}, nil)
}

// Classes returns the code element classes used for math fragments.
func (n *Math) Classes() string {
	if n.Display {
		return "language-math math-display"
	}
	return "language-math math-inline"
}

// KindMathBlock is the block math container kind.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// MathBlock wraps a display Math node from a `$$` block or a math fence.
type MathBlock struct {
	ast.BaseBlock
}

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }
func (n *MathBlock) IsRaw() bool        { return true }

func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Prop is one attribute of a component reference.
type Prop struct {
	Name string
	// Value is a string literal, or an expression when Expr is set.
	// An empty non-expression value renders as a bare boolean attribute.
	Value string
	Expr  bool
}

// KindComponent is the component reference kind.
var KindComponent = ast.NewNodeKind("Component")

// Component references a named component in the render output.
type Component struct {
	ast.BaseBlock
	Name    string
	Props   []Prop
	Content string
	inline  bool
}

// NewComponent returns a block-level component reference.
func NewComponent(name string, props ...Prop) *Component {
	return &Component{Name: name, Props: props}
}

// NewInlineComponent returns a component reference that renders inside a paragraph.
func NewInlineComponent(name string, props ...Prop) *Component {
	return &Component{Name: name, Props: props, inline: true}
}

func (n *Component) Kind() ast.NodeKind { return KindComponent }

// Type reports inline for components created inside inline content.
func (n *Component) Type() ast.NodeType {
	if n.inline {
		return ast.TypeInline
	}
	return ast.TypeBlock
}

// IsInline reports whether the component sits in inline content.
func (n *Component) IsInline() bool { return n.inline }

func (n *Component) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name, "Content": n.Content}, nil)
}

// KindRawBlock is pre-rendered markup emitted verbatim.
var KindRawBlock = ast.NewNodeKind("RawBlock")

// RawBlock carries markup produced by an external engine.
type RawBlock struct {
	ast.BaseBlock
	HTML string
}

func (n *RawBlock) Kind() ast.NodeKind { return KindRawBlock }
func (n *RawBlock) IsRaw() bool        { return true }

func (n *RawBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}
