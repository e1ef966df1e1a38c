package stages

import (
	"context"
	"strconv"

	"github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/pagecompiler/internal/markdown"
)

// Highlighter is an external syntax highlighting engine. Returning ok=false
// leaves the block to the default code renderer.
type Highlighter interface {
	Highlight(ctx context.Context, code string, meta markdown.CodeMeta) (html string, ok bool, err error)
}

// Highlight annotates fenced code blocks with their info-string metadata
// and hands them to an optional Highlighter.
type Highlight struct {
	Highlighter Highlighter
}

func (h *Highlight) Name() string { return "highlight" }

func (h *Highlight) Run(t *Tree, opts RunOptions) error {
	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(t.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if fc, ok := n.(*ast.FencedCodeBlock); ok && entering {
			blocks = append(blocks, fc)
		}
		return ast.WalkContinue, nil
	})

	for _, fc := range blocks {
		var info string
		if fc.Info != nil {
			info = string(fc.Info.Segment.Value(t.Source))
		}
		meta := markdown.ParseCodeMeta(info)
		annotate(fc, meta)

		if h.Highlighter != nil {
			code := string(markdown.BlockText(fc, t.Source))
			out, ok, err := h.Highlighter.Highlight(opts.ctx(), code, meta)
			if err != nil {
				return err
			}
			if ok {
				fc.Parent().ReplaceChild(fc.Parent(), fc, &markdown.RawBlock{HTML: out})
			}
		}
		t.MarkParticipated(h.Name())
	}
	return nil
}

func annotate(fc *ast.FencedCodeBlock, meta markdown.CodeMeta) {
	if meta.Language != "" {
		fc.SetAttributeString("data-language", []byte(meta.Language))
	}
	if meta.Filename != "" {
		fc.SetAttributeString("data-filename", []byte(meta.Filename))
	}
	if meta.HighlightLines != "" {
		fc.SetAttributeString("data-highlight-lines", []byte(meta.HighlightLines))
	}
	if meta.ShowLineNumbers {
		fc.SetAttributeString("data-line-numbers", []byte("true"))
	}
	if meta.Copy != nil {
		fc.SetAttributeString("data-copy", []byte(strconv.FormatBool(*meta.Copy)))
	}
}
