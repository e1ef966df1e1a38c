package pagemap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/pagecompiler/internal/frontmatter"
	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
	"git.home.luguber.info/inful/pagecompiler/internal/scan"
)

// ErrNotSpliceable is returned by Splice when the directory has no folder
// node of its own (it is unknown or an inlined index folder).
var ErrNotSpliceable = errors.New("directory has no folder node to splice")

// FrontMatterSource resolves a document's front matter, title included.
type FrontMatterSource interface {
	FrontMatter(ctx context.Context, src scan.SourceFile) (map[string]any, error)
}

// Builder turns scan results into page maps.
type Builder struct {
	Source      FrontMatterSource
	IndexName   string
	Concurrency int
	// Lenient records front matter failures as diagnostics instead of
	// aborting; used by the long-running incremental mode.
	Lenient bool
	Logger  *slog.Logger
}

func (b *Builder) indexName() string {
	if b.IndexName == "" {
		return "index"
	}
	return b.IndexName
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// Build constructs the page map of one locale root.
func (b *Builder) Build(ctx context.Context, root *scan.Dir, locale string) (*PageMap, []Diagnostic, error) {
	fms, diags, err := b.loadFrontMatter(ctx, root.Documents(), locale)
	if err != nil {
		return nil, nil, err
	}
	st := &buildState{b: b, locale: locale, frontMatter: fms, diags: diags}
	rootID := st.add(Node{Kind: KindFolder, Route: "/", FilePath: root.Path})
	children, err := st.buildChildren(root, "/", nil, true)
	if err != nil {
		return nil, nil, err
	}
	st.nodes[rootID].Children = children

	pm := &PageMap{Locale: locale, nodes: st.nodes, root: rootID}
	b.logger().Debug("Page map built", logfields.Locale(locale), logfields.Count(len(st.nodes)))
	return pm, st.diags, nil
}

// Splice rebuilds the subtree of one scanned directory into a copy of pm.
// Every node outside that subtree keeps its ID, route and position.
func (b *Builder) Splice(ctx context.Context, pm *PageMap, dir *scan.Dir) (*PageMap, []Diagnostic, error) {
	target := NodeID(-1)
	for i, n := range pm.nodes {
		if n.Kind == KindFolder && n.FilePath == dir.Path {
			target = NodeID(i)
			break
		}
	}
	if target < 0 || !pm.reachable(target) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotSpliceable, dir.Path)
	}

	fms, diags, err := b.loadFrontMatter(ctx, dir.Documents(), pm.Locale)
	if err != nil {
		return nil, nil, err
	}
	st := &buildState{
		b:           b,
		locale:      pm.Locale,
		frontMatter: fms,
		diags:       diags,
		nodes:       append(make([]Node, 0, len(pm.nodes)), pm.nodes...),
	}
	old := st.nodes[target]
	children, err := st.buildChildren(dir, old.Route, old.inherited, true)
	if err != nil {
		return nil, nil, err
	}
	st.nodes[target].Children = children

	out := &PageMap{Locale: pm.Locale, nodes: st.nodes, root: pm.root}
	return out.compacted(), st.diags, nil
}

func (pm *PageMap) reachable(id NodeID) bool {
	found := false
	_ = pm.Walk(pm.root, func(n NodeID, _ Node) error {
		if n == id {
			found = true
			return errStopWalk
		}
		return nil
	})
	return found
}

var errStopWalk = errors.New("stop")

// compacted drops unreachable arena slots once they outnumber live ones.
func (pm *PageMap) compacted() *PageMap {
	live := 0
	_ = pm.Walk(pm.root, func(NodeID, Node) error { live++; return nil })
	if len(pm.nodes) <= 2*live {
		return pm
	}
	out := &PageMap{Locale: pm.Locale, nodes: make([]Node, 0, live)}
	var copyNode func(id NodeID) NodeID
	copyNode = func(id NodeID) NodeID {
		n := pm.nodes[id]
		newID := NodeID(len(out.nodes))
		out.nodes = append(out.nodes, n)
		children := make([]NodeID, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, copyNode(c))
		}
		out.nodes[newID].Children = children
		return newID
	}
	out.root = copyNode(pm.root)
	return out
}

func (b *Builder) loadFrontMatter(ctx context.Context, docs []scan.Entry, locale string) (map[string]map[string]any, []Diagnostic, error) {
	out := make(map[string]map[string]any, len(docs))
	if b.Source == nil {
		return out, nil, nil
	}
	limit := b.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var (
		mu    sync.Mutex
		diags []Diagnostic
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, d := range docs {
		g.Go(func() error {
			src, err := scan.ReadSource(d.Path, locale)
			if err == nil {
				var fm map[string]any
				fm, err = b.Source.FrontMatter(gctx, src)
				if err == nil {
					mu.Lock()
					out[d.Path] = fm
					mu.Unlock()
					return nil
				}
			}
			if !b.Lenient {
				return err
			}
			b.logger().Warn("Front matter unavailable", logfields.File(d.Path), logfields.Error(err))
			mu.Lock()
			diags = append(diags, Diagnostic{Severity: SeverityError, Path: d.Path, Message: err.Error()})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	sort.Slice(diags, func(i, j int) bool { return diags[i].Path < diags[j].Path })
	return out, diags, nil
}

type buildState struct {
	b           *Builder
	locale      string
	frontMatter map[string]map[string]any
	nodes       []Node
	diags       []Diagnostic
}

func (st *buildState) add(n Node) NodeID {
	st.nodes = append(st.nodes, n)
	return NodeID(len(st.nodes) - 1)
}

// buildChildren builds the ordered children of dir at route. inherited holds
// overrides for dir's entries declared by the parent's ordering file.
func (st *buildState) buildChildren(dir *scan.Dir, route string, inherited *Ordering, withOrderingNode bool) ([]NodeID, error) {
	var own *Ordering
	if dir.Meta != nil {
		o, ds, err := LoadOrdering(dir.Meta.Path)
		st.diags = append(st.diags, ds...)
		if err != nil {
			st.diags = append(st.diags, warnf(dir.Meta.Path, 0, "ordering file ignored: %v", err))
		} else {
			own = o
		}
	}
	ordering := own.merge(inherited)
	index := st.b.indexName()

	cands := make([]candidate, 0, len(dir.Entries))
	present := make(map[string]bool, len(dir.Entries))
	for i, e := range dir.Entries {
		present[e.Name] = true
		item, listed := ordering.lookup(e.Name)
		if !listed && ordering != nil && ordering.Defaults != nil {
			item = *ordering.Defaults
		}

		switch e.Kind {
		case scan.KindDoc:
			if len(item.Items) > 0 {
				st.diags = append(st.diags, warnf(st.orderingPath(dir), 0,
					"override for %q declares items but %s is a document; override ignored", e.Name, e.Path))
				item = MetaItem{}
			}
			r := route
			if e.Name != index {
				r = joinRoute(route, e.Name)
			}
			fm := st.frontMatter[e.Path]
			if fm == nil {
				fm = map[string]any{}
			}
			title := item.Title
			if title == "" {
				title, _ = fm["title"].(string)
			}
			if title == "" {
				title = frontmatter.TitleFromName(e.Name)
			}
			id := st.add(Node{
				Kind:        KindDocument,
				Name:        e.Name,
				Route:       r,
				FilePath:    e.Path,
				Title:       title,
				Hidden:      item.Hidden,
				Type:        item.Type,
				FrontMatter: fm,
			})
			cands = append(cands, candidate{name: e.Name, ids: []NodeID{id}, fsIndex: i})

		case scan.KindDir:
			if e.Name == index {
				ids, err := st.buildChildren(e.Dir, route, item.nested(), false)
				if err != nil {
					return nil, err
				}
				cands = append(cands, candidate{name: e.Name, ids: ids, fsIndex: i})
				continue
			}
			r := joinRoute(route, e.Name)
			title := item.Title
			if title == "" {
				title = frontmatter.TitleFromName(e.Name)
			}
			id := st.add(Node{
				Kind:      KindFolder,
				Name:      e.Name,
				Route:     r,
				FilePath:  e.Path,
				Title:     title,
				Hidden:    item.Hidden,
				Type:      item.Type,
				inherited: item.nested(),
			})
			children, err := st.buildChildren(e.Dir, r, item.nested(), true)
			if err != nil {
				return nil, err
			}
			st.nodes[id].Children = children
			cands = append(cands, candidate{name: e.Name, ids: []NodeID{id}, fsIndex: i})
		}
	}

	if own != nil {
		for _, k := range own.Keys {
			if !present[k] {
				st.diags = append(st.diags, infof(dir.Meta.Path, "ordering key %q names no sibling", k))
			}
		}
	}

	sortCandidates(cands, ordering)

	out := make([]NodeID, 0, len(cands)+1)
	if withOrderingNode && dir.Meta != nil && own != nil {
		out = append(out, st.add(Node{Kind: KindOrdering, FilePath: dir.Meta.Path, Ordering: own}))
	}
	seen := map[string]string{}
	for _, c := range cands {
		for _, id := range c.ids {
			n := st.nodes[id]
			if n.Kind == KindDocument {
				if first, dup := seen[n.Route]; dup {
					return nil, &DuplicateRouteError{Route: n.Route, Locale: st.locale, First: first, Second: n.FilePath}
				}
				seen[n.Route] = n.FilePath
			}
			out = append(out, id)
		}
	}
	return out, nil
}

func (st *buildState) orderingPath(dir *scan.Dir) string {
	if dir.Meta != nil {
		return dir.Meta.Path
	}
	return dir.Path
}

// normalizeName percent-decodes a name once and applies NFC.
func normalizeName(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return norm.NFC.String(name)
}

func joinRoute(parent, name string) string {
	name = normalizeName(name)
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// NormalizeRoute canonicalises a route for lookup: leading slash, no
// trailing slash, each segment decoded once and NFC-normalised.
func NormalizeRoute(route string) string {
	out := "/"
	for _, seg := range strings.Split(route, "/") {
		if seg == "" {
			continue
		}
		out = joinRoute(out, seg)
	}
	return out
}
