package compile

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

func mdxSource(path, content string) scan.SourceFile {
	return scan.SourceFile{Path: path, Format: scan.FormatMDX, Content: []byte(content)}
}

func mdSource(path, content string) scan.SourceFile {
	return scan.SourceFile{Path: path, Format: scan.FormatMarkdown, Content: []byte(content)}
}

type fixedTimestamps struct{ at time.Time }

func (f fixedTimestamps) Timestamp(context.Context, string) (time.Time, bool, error) {
	return f.at, true, nil
}

const richDoc = `---
title: Guide
tags: [a, b]
---
export const metadata = { description: 'Exported description', weight: 3, }

# Heading

Some text with $x^2$ inline.

## Setup

` + "```go filename=\"main.go\" {1}\nfmt.Println()\n```\n"

func TestMetadataModeMatchesFullCompile(t *testing.T) {
	c := New(Options{
		Root:        "/site",
		Math:        true,
		ReadingTime: true,
		Timestamps:  fixedTimestamps{at: time.UnixMilli(1700000000000)},
	})
	src := mdxSource("/site/docs/guide.mdx", richDoc)

	meta, err := c.CompileMetadata(context.Background(), src)
	require.NoError(t, err)
	full, err := c.Compile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, meta.Metadata, full.Metadata)
	assert.Equal(t, ModeMetadata, meta.Mode)
	assert.Equal(t, ModeFull, full.Mode)

	m := full.Metadata
	assert.Equal(t, "Guide", m.Title)
	assert.Equal(t, "Exported description", m.Description)
	assert.Equal(t, "docs/guide.mdx", m.FilePath)
	assert.Equal(t, []any{"a", "b"}, m.Other["tags"])
	assert.Equal(t, 3, m.Other["weight"])
	require.NotNil(t, m.Timestamp)
	assert.Equal(t, int64(1700000000000), *m.Timestamp)
	require.NotNil(t, m.ReadingTime)
	assert.Equal(t, "1 min read", m.ReadingTime.Text)
}

func TestTitleResolution(t *testing.T) {
	tests := []struct {
		name string
		src  scan.SourceFile
		want string
	}{
		{"front matter", mdSource("/a/page.md", "---\ntitle: From Front Matter\n---\n# Heading\n"), "From Front Matter"},
		{"export overrides front matter", mdxSource("/a/page.mdx", "---\ntitle: FM\n---\nexport const metadata = { title: 'Exported' }\n\n# Heading\n"), "Exported"},
		{"first h1", mdSource("/a/page.md", "Intro\n\n## Second\n\n# First *Level*\n"), "First Level"},
		{"file name", mdSource("/a/getting-started.md", "no headings here\n"), "Getting Started"},
		{"crlf front matter", mdSource("/a/win.md", "---\r\ntitle: Windows\r\n---\r\n# H\r\n"), "Windows"},
	}
	c := New(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := c.CompileMetadata(context.Background(), tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Metadata.Title)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	c := New(Options{})

	t.Run("unterminated front matter", func(t *testing.T) {
		_, err := c.Compile(context.Background(), mdSource("/a/x.md", "---\ntitle: x\nbody\n"))
		var ce *CompileError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 1, ce.Line)
		assert.Equal(t, 1, ce.Column)
		assert.Equal(t, ferrors.CategoryCompile, ferrors.GetCategory(err))
	})

	t.Run("malformed front matter", func(t *testing.T) {
		_, err := c.CompileMetadata(context.Background(), mdSource("/a/x.md", "---\ntitle: [unclosed\n---\nbody\n"))
		var ce *CompileError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "malformed front matter", ce.Message)
		assert.Equal(t, "/a/x.md", ce.Path)
	})

	t.Run("unparsable metadata export", func(t *testing.T) {
		_, err := c.CompileMetadata(context.Background(), mdxSource("/a/x.mdx", "export const metadata = { title: 'x'\n\nbody\n"))
		var ce *CompileError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 1, ce.Line)
		assert.Equal(t, 25, ce.Column)
	})
}

func TestCompileStateSequence(t *testing.T) {
	var seen []State
	c := New(Options{Math: true, Trace: func(_ string, s State) { seen = append(seen, s) }})
	_, err := c.Compile(context.Background(), mdSource("/a/x.md", "# T\n\ntext\n"))
	require.NoError(t, err)
	assert.Equal(t, []State{
		StateParsed, StateMetadataAssigned, StateTocCollected,
		StateMathRewritten, StateEnriched, StateCodegenned,
	}, seen)
}

func TestTrackerRejectsSkippedState(t *testing.T) {
	tr := &tracker{path: "x"}
	require.NoError(t, tr.advance(StateParsed))
	assert.Error(t, tr.advance(StateTocCollected))
}

func TestCompileIsDeterministic(t *testing.T) {
	c := New(Options{Math: true, ReadingTime: true})
	src := mdxSource("/a/guide.mdx", richDoc)

	first, err := c.Compile(context.Background(), src)
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), src)
	require.NoError(t, err)

	a, err := first.Encode()
	require.NoError(t, err)
	b, err := second.Encode()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	decoded, err := Decode(a)
	require.NoError(t, err)
	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestCompileTOCAndComponents(t *testing.T) {
	c := New(Options{})
	m, err := c.Compile(context.Background(), mdxSource("/a/x.mdx", "# Title\n\n## Intro\n\n<Callout>hi</Callout>\n\n## Intro\n\n### Deep dive\n"))
	require.NoError(t, err)

	assert.Equal(t, []Heading{
		{Depth: 2, Value: "Intro", ID: "intro"},
		{Depth: 2, Value: "Intro", ID: "intro-1"},
		{Depth: 3, Value: "Deep dive", ID: "deep-dive"},
	}, m.TOC)
	assert.Contains(t, m.Components, "Callout")
	assert.Contains(t, m.Body, `id="intro-1"`)
}

func TestCompileMathInjectsProvider(t *testing.T) {
	c := New(Options{Math: true})
	m, err := c.Compile(context.Background(), mdSource("/a/x.md", "Euler: $e^{i\\pi}$\n"))
	require.NoError(t, err)

	assert.Contains(t, m.Declarations, "import { MathJax, MathJaxContext } from 'better-react-mathjax'")
	assert.Equal(t, []string{"MathJax", "MathJaxContext"}, m.Components)
	assert.Contains(t, m.Body, "<MathJaxContext")
}

func TestCompileDisplayMathBlock(t *testing.T) {
	c := New(Options{Math: true})
	m, err := c.Compile(context.Background(), mdSource("/a/x.md", "Intro\n\n$$\nx^2 + y^2\n$$\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"import { MathJax, MathJaxContext } from 'better-react-mathjax'"}, m.Declarations)
	assert.Contains(t, m.Body, "<MathJax>\\[x^2 + y^2\\]</MathJax>")
	assert.NotContains(t, m.Body, "$$")
}

func TestCompileWithoutMathLeavesDollars(t *testing.T) {
	c := New(Options{})
	m, err := c.Compile(context.Background(), mdSource("/a/x.md", "costs $5 and $6\n"))
	require.NoError(t, err)
	assert.Empty(t, m.Declarations)
	assert.Contains(t, m.Body, "$5")
}

func TestRenderMarkdownIsRemoteContent(t *testing.T) {
	c := New(Options{Math: true})
	out, err := c.RenderMarkdown(context.Background(), "**bold** and $x$")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "MathJax")
}

func TestReadingTime(t *testing.T) {
	c := New(Options{ReadingTime: true})
	words := strings.Repeat("word ", 400)
	m, err := c.CompileMetadata(context.Background(), mdSource("/a/x.md", words+"\n"))
	require.NoError(t, err)

	rt := m.Metadata.ReadingTime
	require.NotNil(t, rt)
	assert.Equal(t, 400, rt.Words)
	assert.InDelta(t, 2.0, rt.Minutes, 0.0001)
	assert.Equal(t, int64(120000), rt.Time)
	assert.Equal(t, "2 min read", rt.Text)
}

func TestFilePathOutsideRoot(t *testing.T) {
	c := New(Options{Root: filepath.FromSlash("/site/content")})
	m, err := c.CompileMetadata(context.Background(), mdSource("/elsewhere/a.md", "x\n"))
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/a.md", m.Metadata.FilePath)
}

func TestFrontMatterAdapter(t *testing.T) {
	c := New(Options{})
	fm, err := c.FrontMatter(context.Background(), mdSource("/a/intro.md", "---\nsidebar: false\n---\ntext\n"))
	require.NoError(t, err)
	assert.Equal(t, "Intro", fm["title"])
	assert.Equal(t, false, fm["sidebar"])
}

func TestModuleRender(t *testing.T) {
	c := New(Options{})
	src := mdSource("/a/x.md", "hello\n")

	full, err := c.Compile(context.Background(), src)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, full.Render(&buf))
	assert.Equal(t, "<p>hello</p>\n", buf.String())

	meta, err := c.CompileMetadata(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, errors.Is(meta.Render(&buf), ErrNoRenderEntry))
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		raw  string
		want Request
	}{
		{"page.mdx", Request{Path: "page.mdx", Mode: ModeFull}},
		{"page.mdx?metadata", Request{Path: "page.mdx", Mode: ModeMetadata}},
		{"page.mdx?other=1", Request{Path: "page.mdx", Mode: ModeFull}},
		{"page.mdx?x=1&metadata", Request{Path: "page.mdx", Mode: ModeMetadata}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseRequest(tt.raw)
			assert.Equal(t, tt.want, got)
			if tt.want.Mode == ModeMetadata {
				assert.Equal(t, "page.mdx?metadata", got.String())
			}
		})
	}
}
