package stages

import (
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/pagecompiler/internal/markdown"
)

const (
	mathComponent  = "MathJax"
	mathProvider   = "MathJaxContext"
	mathImportDecl = "import { MathJax, MathJaxContext } from 'better-react-mathjax'"
)

// MathOptions configures bracket pairs and the provider component.
type MathOptions struct {
	InlineMath  [2]string
	DisplayMath [2]string
	Src         string
	Config      map[string]any
}

// DefaultMathOptions returns the default bracket pairs.
func DefaultMathOptions() MathOptions {
	return MathOptions{
		InlineMath:  [2]string{`\(`, `\)`},
		DisplayMath: [2]string{`\[`, `\]`},
	}
}

// Math rewrites math fragments into bracketed component references and
// wraps the document body in a single provider when any were found.
type Math struct {
	Options MathOptions
}

func (m *Math) Name() string { return "math" }

func (m *Math) Run(t *Tree, opts RunOptions) error {
	var found []*markdown.Math
	_ = ast.Walk(t.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if v, ok := n.(*markdown.Math); ok && entering {
			found = append(found, v)
		}
		return ast.WalkContinue, nil
	})
	if len(found) == 0 {
		return nil
	}

	o := m.options()
	for _, node := range found {
		brackets := o.InlineMath
		if node.Display {
			brackets = o.DisplayMath
		}
		text := brackets[0] + node.Value + brackets[1]

		parent := node.Parent()
		if block, ok := parent.(*markdown.MathBlock); ok {
			c := markdown.NewComponent(mathComponent)
			c.Content = text
			block.Parent().ReplaceChild(block.Parent(), block, c)
			continue
		}
		c := markdown.NewInlineComponent(mathComponent, markdown.Prop{Name: "inline"})
		c.Content = text
		parent.ReplaceChild(parent, node, c)
	}

	provider, err := m.provider(o)
	if err != nil {
		return err
	}
	root := t.Root
	var body []ast.Node
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if !isModuleScope(n) {
			body = append(body, n)
		}
	}
	for _, n := range body {
		root.RemoveChild(root, n)
		provider.AppendChild(provider, n)
	}
	if !opts.RemoteContent {
		root.AppendChild(root, markdown.NewDeclaration(mathImportDecl))
	}
	root.AppendChild(root, provider)
	t.MarkParticipated(m.Name())
	return nil
}

func (m *Math) options() MathOptions {
	o := m.Options
	d := DefaultMathOptions()
	if o.InlineMath[0] == "" && o.InlineMath[1] == "" {
		o.InlineMath = d.InlineMath
	}
	if o.DisplayMath[0] == "" && o.DisplayMath[1] == "" {
		o.DisplayMath = d.DisplayMath
	}
	return o
}

func (m *Math) provider(o MathOptions) (*markdown.Component, error) {
	var props []markdown.Prop
	if o.Src != "" {
		props = append(props, markdown.Prop{Name: "src", Value: o.Src})
	}
	d := DefaultMathOptions()
	if len(o.Config) == 0 && o.InlineMath == d.InlineMath && o.DisplayMath == d.DisplayMath {
		return markdown.NewComponent(mathProvider, props...), nil
	}

	cfg := map[string]any{}
	for k, v := range o.Config {
		cfg[k] = v
	}
	tex := map[string]any{}
	if userTex, ok := cfg["tex"].(map[string]any); ok {
		for k, v := range userTex {
			tex[k] = v
		}
	}
	tex["inlineMath"] = [][2]string{o.InlineMath}
	tex["displayMath"] = [][2]string{o.DisplayMath}
	cfg["tex"] = tex
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode math config: %w", err)
	}
	props = append(props, markdown.Prop{Name: "config", Value: string(raw), Expr: true})
	return markdown.NewComponent(mathProvider, props...), nil
}
