package tsdoc

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagecompiler/internal/compile/stages"
)

// MarkdownRenderer renders a description snippet to markup.
type MarkdownRenderer interface {
	RenderMarkdown(ctx context.Context, text string) (string, error)
}

// RenderOptions tunes table output.
type RenderOptions struct {
	// TypeLinkMap links type names appearing in type text.
	TypeLinkMap map[string]string
	// NoParametersContent replaces the parameter table of nullary functions.
	NoParametersContent string
}

const defaultNoParameters = `<div class="callout callout-info">This function does not accept any parameters.</div>`

// RenderTable renders a definition as HTML tables. Descriptions go through
// md, so they may use full markdown.
func RenderTable(ctx context.Context, def *Definition, md MarkdownRenderer, opts RenderOptions) (string, error) {
	r := &tableRenderer{ctx: ctx, md: md, opts: opts}
	if !def.IsFunction() {
		if err := r.fieldsTable(def.Entries); err != nil {
			return "", err
		}
		return r.b.String(), nil
	}

	multi := len(def.Signatures) > 1
	for i, sig := range def.Signatures {
		suffix := ""
		if multi {
			suffix = fmt.Sprint(i + 1)
			fmt.Fprintf(&r.b, `<section class="tsdoc-signature" data-signature="%d"><h4>Function Signature %d</h4>`, i+1, i+1)
		}
		if err := r.signature(sig, suffix); err != nil {
			return "", err
		}
		if multi {
			r.b.WriteString(`</section>`)
		}
	}
	return r.b.String(), nil
}

type tableRenderer struct {
	ctx  context.Context
	md   MarkdownRenderer
	opts RenderOptions
	b    strings.Builder
}

func (r *tableRenderer) signature(sig Signature, suffix string) error {
	r.b.WriteString(`<p><b>Parameters:</b></p>`)
	if len(sig.Params) == 0 {
		content := r.opts.NoParametersContent
		if content == "" {
			content = defaultNoParameters
		}
		r.b.WriteString(content)
	} else if err := r.fieldsTable(sig.Params); err != nil {
		return err
	}

	r.b.WriteString(`<p><b>Returns:</b></p>`)
	desc, err := r.markdown(sig.Returns.Description)
	if err != nil {
		return err
	}
	if len(sig.Returns.Fields) > 0 {
		r.b.WriteString(desc)
		r.b.WriteString(`<table class="tsdoc"><thead><tr><th>Name</th><th>Type</th></tr></thead><tbody>`)
		slugger := stages.NewSlugger()
		for _, f := range sig.Returns.Fields {
			id := slugger.Slug(f.Name)
			fdesc, err := r.markdown(firstNonEmpty(f.Description, f.Tags["description"]))
			if err != nil {
				return err
			}
			fmt.Fprintf(&r.b, `<tr id="%s">`, html.EscapeString(id))
			r.nameCell(id, f)
			r.typeCell(f.Type, fdesc)
			r.b.WriteString(`</tr>`)
		}
		r.b.WriteString(`</tbody></table>`)
		return nil
	}

	id := "returns" + suffix
	fmt.Fprintf(&r.b, `<div id="%s" class="tsdoc-returns"><a href="#%s"></a><code>%s</code>`,
		id, id, r.linkify(sig.Returns.Type))
	if desc != "" {
		fmt.Fprintf(&r.b, `<div>%s</div>`, desc)
	}
	r.b.WriteString(`</div>`)
	return nil
}

func (r *tableRenderer) fieldsTable(fields []TypeField) error {
	r.b.WriteString(`<table class="tsdoc"><thead><tr><th>Name</th><th>Type</th><th>Default</th></tr></thead><tbody>`)
	slugger := stages.NewSlugger()
	for _, f := range fields {
		id := slugger.Slug(f.Name)
		text := firstNonEmpty(f.Description, f.Tags["description"])
		if dep, ok := f.Tags["deprecated"]; ok && dep != "" {
			text = strings.TrimSpace(text + "\n**Deprecated**: " + dep)
		}
		desc, err := r.markdown(text)
		if err != nil {
			return err
		}
		fmt.Fprintf(&r.b, `<tr id="%s">`, html.EscapeString(id))
		r.nameCell(id, f)
		r.typeCell(f.Type, desc)
		if def := f.Default(); def != "" {
			fmt.Fprintf(&r.b, `<td><code>%s</code></td>`, r.linkify(def))
		} else {
			r.b.WriteString(`<td>–</td>`)
		}
		r.b.WriteString(`</tr>`)
	}
	r.b.WriteString(`</tbody></table>`)
	return nil
}

func (r *tableRenderer) nameCell(id string, f TypeField) {
	name := html.EscapeString(f.Name)
	if f.Optional {
		name += "?"
	}
	fmt.Fprintf(&r.b, `<td><a href="#%s"></a><code>%s</code></td>`, html.EscapeString(id), name)
}

func (r *tableRenderer) typeCell(typ, desc string) {
	fmt.Fprintf(&r.b, `<td><code>%s</code>`, r.linkify(typ))
	if desc != "" {
		fmt.Fprintf(&r.b, `<div>%s</div>`, desc)
	}
	r.b.WriteString(`</td>`)
}

func (r *tableRenderer) markdown(text string) (string, error) {
	if strings.TrimSpace(text) == "" || r.md == nil {
		return html.EscapeString(text), nil
	}
	out, err := r.md.RenderMarkdown(r.ctx, text)
	if err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return strings.TrimSpace(out), nil
}

var wordRe = regexp.MustCompile(`\w+|\W+`)

// linkify escapes type text and links names found in the type link map.
func (r *tableRenderer) linkify(typ string) string {
	var b strings.Builder
	for _, chunk := range wordRe.FindAllString(typ, -1) {
		if href, ok := r.opts.TypeLinkMap[chunk]; ok {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(chunk))
			continue
		}
		b.WriteString(html.EscapeString(chunk))
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
