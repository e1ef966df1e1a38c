package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/net/html"
)

// CollectComponents returns the sorted, de-duplicated names of components
// referenced by the tree: capitalised or dotted tags in raw markup, plus
// Component nodes.
func CollectComponents(root ast.Node, source []byte) []string {
	seen := map[string]struct{}{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *Component:
			seen[v.Name] = struct{}{}
		case *ast.HTMLBlock:
			raw := BlockText(v, source)
			if v.HasClosure() {
				raw = append(raw, v.ClosureLine.Value(source)...)
			}
			scanTags(raw, seen)
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				buf.Write(seg.Value(source))
			}
			scanTags(buf.Bytes(), seen)
		}
		return ast.WalkContinue, nil
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// scanTags tokenizes markup and records component tag names. The tokenizer
// lower-cases names, so the original spelling is read from the raw token.
func scanTags(markup []byte, seen map[string]struct{}) {
	z := html.NewTokenizer(bytes.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.StartTagToken, html.SelfClosingTagToken:
			if name := rawTagName(z.Raw()); isComponentName(name) {
				seen[name] = struct{}{}
			}
		}
	}
}

func rawTagName(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte("<"))
	end := 0
	for end < len(raw) {
		c := raw[end]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' || c == '>' {
			break
		}
		end++
	}
	return string(raw[:end])
}

func isComponentName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return (c >= 'A' && c <= 'Z') || bytes.IndexByte([]byte(name), '.') > 0
}
