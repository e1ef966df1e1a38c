// Package stages holds the enrichment passes run over a parsed document.
//
// Stages run sequentially in a fixed declared order. A stage that finds
// nothing to do leaves the tree untouched and returns nil.
package stages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/pagecompiler/internal/markdown"
)

// Stage is one pass over the shared document tree.
type Stage interface {
	Name() string
	Run(t *Tree, opts RunOptions) error
}

// RunOptions carries per-document settings shared by every stage.
type RunOptions struct {
	Context  context.Context
	FilePath string
	// RemoteContent assumes component imports are already in scope.
	RemoteContent bool
	Logger        *slog.Logger
}

func (o RunOptions) ctx() context.Context {
	if o.Context == nil {
		return context.Background()
	}
	return o.Context
}

// Heading is one table of contents entry.
type Heading struct {
	Depth int    `json:"depth"`
	Value string `json:"value"`
	ID    string `json:"id"`
}

// Tree is the document being compiled.
type Tree struct {
	Root   ast.Node
	Source []byte
	TOC    []Heading

	participated map[string]bool
}

// NewTree wraps a parsed document.
func NewTree(root ast.Node, source []byte) *Tree {
	return &Tree{Root: root, Source: source, participated: map[string]bool{}}
}

// MarkParticipated records that a stage changed the tree.
func (t *Tree) MarkParticipated(stage string) {
	if t.participated == nil {
		t.participated = map[string]bool{}
	}
	t.participated[stage] = true
}

// Participated reports whether the named stage changed the tree.
func (t *Tree) Participated(stage string) bool { return t.participated[stage] }

// Declarations returns the module-scope imports and exports in tree order.
func (t *Tree) Declarations() []string {
	var out []string
	for n := t.Root.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *markdown.ESM:
			out = append(out, v.Value(t.Source))
		case *markdown.Declaration:
			out = append(out, v.Value)
		}
	}
	return out
}

// Run executes stages in order, stopping at the first failure.
func Run(t *Tree, opts RunOptions, list ...Stage) error {
	for _, s := range list {
		if err := opts.ctx().Err(); err != nil {
			return err
		}
		if err := s.Run(t, opts); err != nil {
			return fmt.Errorf("stage %s: %w", s.Name(), err)
		}
	}
	return nil
}

// isModuleScope reports nodes that stay outside any body wrapper.
func isModuleScope(n ast.Node) bool {
	switch n.(type) {
	case *markdown.ESM, *markdown.Declaration:
		return true
	}
	return false
}
