package compile

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark/ast"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagecompiler/internal/frontmatter"
	"git.home.luguber.info/inful/pagecompiler/internal/markdown"
)

// wordsPerMinute is the reading speed used for reading time estimates.
const wordsPerMinute = 200

// ReadingTime estimates how long a document takes to read.
type ReadingTime struct {
	Text    string  `json:"text"`
	Minutes float64 `json:"minutes"`
	Time    int64   `json:"time"`
	Words   int     `json:"words"`
}

// Metadata is shared by metadata-only and full compiles of the same bytes.
type Metadata struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	FilePath    string         `json:"filePath"`
	Other       map[string]any `json:"other,omitempty"`
	Timestamp   *int64         `json:"timestamp,omitempty"`
	ReadingTime *ReadingTime   `json:"readingTime,omitempty"`
}

// FrontMatter returns the metadata as a flat front matter mapping.
func (m Metadata) FrontMatter() map[string]any {
	out := make(map[string]any, len(m.Other)+2)
	for k, v := range m.Other {
		out[k] = v
	}
	out["title"] = m.Title
	if m.Description != "" {
		out["description"] = m.Description
	}
	return out
}

// TimestampSource supplies a document's last modification time.
type TimestampSource interface {
	Timestamp(ctx context.Context, path string) (time.Time, bool, error)
}

func newReadingTime(words int) *ReadingTime {
	minutes := float64(words) / wordsPerMinute
	rounded := math.Round(minutes*100) / 100
	return &ReadingTime{
		Text:    fmt.Sprintf("%d min read", int(math.Ceil(rounded))),
		Minutes: minutes,
		Time:    int64(math.Round(minutes * 60000)),
		Words:   words,
	}
}

// resolveMetadata is the single metadata derivation used by both modes.
func (c *Compiler) resolveMetadata(ctx context.Context, doc *parsedDoc) (Metadata, error) {
	merged := make(map[string]any, len(doc.frontMatter)+len(doc.exported))
	for k, v := range doc.frontMatter {
		merged[k] = jsonSafe(v)
	}
	for k, v := range doc.exported {
		merged[k] = jsonSafe(v)
	}

	meta := Metadata{FilePath: c.relativePath(doc.src.Path)}
	meta.Title = stringField(merged["title"])
	if meta.Title == "" {
		meta.Title = firstH1(doc.root, doc.body)
	}
	if meta.Title == "" {
		base := filepath.Base(doc.src.Path)
		meta.Title = frontmatter.TitleFromName(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	meta.Description = stringField(merged["description"])
	delete(merged, "title")
	delete(merged, "description")
	if len(merged) > 0 {
		meta.Other = merged
	}

	if c.opts.Timestamps != nil {
		ts, ok, err := c.opts.Timestamps.Timestamp(ctx, doc.src.Path)
		if err != nil {
			c.logger().Debug("Timestamp unavailable", "file", doc.src.Path, "error", err)
		} else if ok {
			ms := ts.UnixMilli()
			meta.Timestamp = &ms
		}
	}
	if c.opts.ReadingTime {
		meta.ReadingTime = newReadingTime(markdown.CountWords(doc.root, doc.body))
	}
	return meta, nil
}

func (c *Compiler) relativePath(path string) string {
	if c.opts.Root != "" {
		if rel, err := filepath.Rel(c.opts.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func firstH1(root ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
			title = markdown.PlainText(h, source)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

// jsonSafe converts YAML-decoded values into JSON-encodable ones.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonSafe(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonSafe(val)
		}
		return out
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

var (
	metadataExportRe = regexp.MustCompile(`export\s+const\s+metadata\s*(?::\s*[\w.<>\[\]]+\s*)?=\s*`)
	trailingCommaRe  = regexp.MustCompile(`,(\s*[}\]])`)
)

// exportedMetadata extracts `export const metadata = {...}` from an ESM
// block. The object literal is read as a YAML flow mapping. offset is the
// byte offset of the literal within value when parsing fails.
func exportedMetadata(value string) (map[string]any, int, error) {
	loc := metadataExportRe.FindStringIndex(value)
	if loc == nil {
		return nil, 0, nil
	}
	start := loc[1]
	if start >= len(value) || value[start] != '{' {
		return nil, start, fmt.Errorf("metadata export must be an object literal")
	}
	end, err := matchBrace(value, start)
	if err != nil {
		return nil, start, err
	}
	literal := trailingCommaRe.ReplaceAllString(value[start:end+1], "$1")

	var out map[string]any
	if err := yaml.Unmarshal([]byte(literal), &out); err != nil {
		return nil, start, fmt.Errorf("unparsable metadata literal: %w", err)
	}
	return out, start, nil
}

// matchBrace returns the index of the brace closing the one at open,
// skipping quoted strings.
func matchBrace(s string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated metadata object literal")
}

// lineCol converts a byte offset into 1-based line and column.
func lineCol(source []byte, offset int) (int, int) {
	if offset > len(source) {
		offset = len(source)
	}
	line := bytes.Count(source[:offset], []byte("\n")) + 1
	col := offset - bytes.LastIndexByte(source[:offset], '\n')
	return line, col
}
