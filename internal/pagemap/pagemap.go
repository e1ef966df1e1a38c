// Package pagemap builds the per-locale tree of folders, documents and
// ordering files that describes a content root, with each node's route.
//
// Nodes live in an arena addressed by NodeID. A PageMap is immutable once
// built; Splice returns a new map that shares every untouched node.
package pagemap

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
)

// NodeID addresses a node within one PageMap's arena.
type NodeID int

// Kind tags the node union.
type Kind int

const (
	KindFolder Kind = iota
	KindDocument
	KindOrdering
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindDocument:
		return "document"
	case KindOrdering:
		return "ordering"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one page map entry. Fields not meaningful for a Kind are zero.
type Node struct {
	Kind        Kind
	Name        string
	Route       string
	FilePath    string
	Title       string
	Hidden      bool
	Type        string
	FrontMatter map[string]any
	Ordering    *Ordering
	Children    []NodeID
	// inherited holds the folder override items from the parent's ordering file.
	inherited *Ordering
}

// PageMap is the immutable tree for one locale.
type PageMap struct {
	Locale string
	nodes  []Node
	root   NodeID
}

// Root returns the root folder's ID.
func (pm *PageMap) Root() NodeID { return pm.root }

// Node returns the node for id. Callers must not mutate the returned slices or maps.
func (pm *PageMap) Node(id NodeID) Node { return pm.nodes[id] }

// Len reports the number of arena slots, reachable or not.
func (pm *PageMap) Len() int { return len(pm.nodes) }

// Walk visits id and its descendants depth-first in child order.
func (pm *PageMap) Walk(id NodeID, fn func(id NodeID, n Node) error) error {
	n := pm.nodes[id]
	if err := fn(id, n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := pm.Walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Documents returns every document node in depth-first order.
func (pm *PageMap) Documents() []Node {
	var out []Node
	_ = pm.Walk(pm.root, func(_ NodeID, n Node) error {
		if n.Kind == KindDocument {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// FindFolder resolves a route to its folder node by descending one
// segment at a time. The root route "/" resolves to the root.
func (pm *PageMap) FindFolder(route string) (NodeID, bool) {
	id := pm.root
	for _, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		if seg == "" {
			continue
		}
		seg = normalizeName(seg)
		found := false
		for _, c := range pm.nodes[id].Children {
			n := pm.nodes[c]
			if n.Kind == KindFolder && lastSegment(n.Route) == seg {
				id, found = c, true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return id, true
}

func lastSegment(route string) string {
	if i := strings.LastIndexByte(route, '/'); i >= 0 {
		return route[i+1:]
	}
	return route
}

// Item is the exported nested form of a node.
type Item struct {
	Name        string              `json:"name,omitempty"`
	Route       string              `json:"route,omitempty"`
	Title       string              `json:"title,omitempty"`
	Hidden      bool                `json:"hidden,omitempty"`
	Type        string              `json:"type,omitempty"`
	FrontMatter map[string]any      `json:"frontMatter,omitempty"`
	Data        map[string]MetaItem `json:"data,omitempty"`
	Children    []Item              `json:"children,omitempty"`
}

// Items exports the root folder's children.
func (pm *PageMap) Items() []Item {
	return pm.ItemsAt(pm.root)
}

// ItemsAt exports the children of a folder.
func (pm *PageMap) ItemsAt(id NodeID) []Item {
	n := pm.nodes[id]
	out := make([]Item, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, pm.item(c))
	}
	return out
}

func (pm *PageMap) item(id NodeID) Item {
	n := pm.nodes[id]
	switch n.Kind {
	case KindOrdering:
		data := map[string]MetaItem{}
		if n.Ordering != nil {
			for k, v := range n.Ordering.Items {
				data[k] = v
			}
		}
		return Item{Data: data}
	case KindDocument:
		return Item{Name: n.Name, Route: n.Route, Title: n.Title, Hidden: n.Hidden, Type: n.Type, FrontMatter: n.FrontMatter}
	default:
		children := pm.ItemsAt(id)
		if children == nil {
			children = []Item{}
		}
		return Item{Name: n.Name, Route: n.Route, Title: n.Title, Hidden: n.Hidden, Type: n.Type, Children: children}
	}
}

// DuplicateRouteError reports two documents resolving to the same route.
type DuplicateRouteError struct {
	Route  string
	Locale string
	First  string
	Second string
}

func (e *DuplicateRouteError) Error() string {
	loc := ""
	if e.Locale != "" {
		loc = fmt.Sprintf(" (locale %q)", e.Locale)
	}
	return fmt.Sprintf("duplicate route %s%s: %s and %s", e.Route, loc, e.First, e.Second)
}

func (e *DuplicateRouteError) Category() ferrors.ErrorCategory { return ferrors.CategoryRoute }
