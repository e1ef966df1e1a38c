// Package routes flattens page maps into per-locale route tables and
// publishes them as atomically swapped snapshots.
package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
	"git.home.luguber.info/inful/pagecompiler/internal/pagemap"
)

// DuplicateRouteError reports two documents resolving to one route.
type DuplicateRouteError = pagemap.DuplicateRouteError

// Table maps routes to source files for one locale. It is immutable.
type Table struct {
	Locale string
	order  []string
	files  map[string]string
	byFile map[string]string
}

// Compile flattens a complete page map depth-first.
func Compile(pm *pagemap.PageMap) (*Table, error) {
	t := &Table{Locale: pm.Locale, files: map[string]string{}, byFile: map[string]string{}}
	err := pm.Walk(pm.Root(), func(_ pagemap.NodeID, n pagemap.Node) error {
		if n.Kind != pagemap.KindDocument {
			return nil
		}
		if first, dup := t.files[n.Route]; dup {
			return &DuplicateRouteError{Route: n.Route, Locale: pm.Locale, First: first, Second: n.FilePath}
		}
		t.order = append(t.order, n.Route)
		t.files[n.Route] = n.FilePath
		t.byFile[n.FilePath] = n.Route
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the source file of a route.
func (t *Table) Lookup(route string) (string, bool) {
	p, ok := t.files[pagemap.NormalizeRoute(route)]
	return p, ok
}

// RouteOf returns the route served by a source file.
func (t *Table) RouteOf(path string) (string, bool) {
	r, ok := t.byFile[path]
	return r, ok
}

// Routes returns all routes in insertion order.
func (t *Table) Routes() []string {
	return append([]string(nil), t.order...)
}

// Len reports the number of routes.
func (t *Table) Len() int { return len(t.order) }

// MarshalJSON encodes the table as an object keyed in insertion order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(t.files[r])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NotFoundError is a route lookup miss.
type NotFoundError struct {
	Route  string
	Locale string
}

func (e *NotFoundError) Error() string {
	if e.Locale == "" {
		return fmt.Sprintf("route not found: %s", e.Route)
	}
	return fmt.Sprintf("route not found: %s (locale %q)", e.Route, e.Locale)
}

func (e *NotFoundError) Category() ferrors.ErrorCategory { return ferrors.CategoryNotFound }

// Segments splits a route into its path segments; "/" has none.
func Segments(route string) []string {
	trimmed := strings.Trim(route, "/")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "/")
}

// FromSegments joins route segments into a normalized route.
func FromSegments(segments []string) string {
	return pagemap.NormalizeRoute(strings.Join(segments, "/"))
}
