package stages

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/pagecompiler/internal/markdown"
)

// TOC assigns anchor ids to every heading and collects depths 2 to 6.
type TOC struct{}

func (TOC) Name() string { return "toc" }

func (TOC) Run(t *Tree, _ RunOptions) error {
	slugger := NewSlugger()
	var toc []Heading
	_ = ast.Walk(t.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		value := markdown.PlainText(h, t.Source)
		var id string
		if existing, ok := h.AttributeString("id"); ok {
			id = attrString(existing)
			slugger.Reserve(id)
		} else {
			id = slugger.Slug(value)
			h.SetAttributeString("id", []byte(id))
		}
		if h.Level >= 2 && h.Level <= 6 {
			toc = append(toc, Heading{Depth: h.Level, Value: value, ID: id})
		}
		return ast.WalkSkipChildren, nil
	})
	t.TOC = toc
	if len(toc) > 0 {
		t.MarkParticipated("toc")
	}
	return nil
}

func attrString(v any) string {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	}
	return ""
}

// Slugger produces GitHub-style anchor slugs, unique per document.
type Slugger struct {
	occurrences map[string]int
}

// NewSlugger returns an empty slugger.
func NewSlugger() *Slugger {
	return &Slugger{occurrences: map[string]int{}}
}

// Slug returns a unique slug for value; repeats get -1, -2 suffixes.
func (s *Slugger) Slug(value string) string {
	base := slugify(value)
	result := base
	for {
		if _, taken := s.occurrences[result]; !taken {
			break
		}
		s.occurrences[base]++
		result = base + "-" + strconv.Itoa(s.occurrences[base])
	}
	s.occurrences[result] = 0
	return result
}

// Reserve marks an explicit id as taken.
func (s *Slugger) Reserve(id string) {
	if _, ok := s.occurrences[id]; !ok {
		s.occurrences[id] = 0
	}
}

func slugify(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsMark(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
